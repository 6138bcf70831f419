// Package journal implements the entry lifecycle: permission-gated create,
// read, update and delete with form validation.
package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/avolkova/journal/internal/domain"
	"github.com/avolkova/journal/pkg/ctxutil"
)

// entryRepo defines the entry repository interface needed by the service.
type entryRepo interface {
	Create(ctx context.Context, title, text string) (*domain.Entry, error)
	GetByID(ctx context.Context, id int64) (*domain.Entry, error)
	GetByTitle(ctx context.Context, title string) (*domain.Entry, error)
	List(ctx context.Context) ([]domain.Entry, error)
	Update(ctx context.Context, id int64, title, text string) (*domain.Entry, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
}

// txManager defines the transaction manager interface needed by the service.
type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements journal entry operations.
//
// Every operation checks the permission policy against the identity in the
// context before touching the store; a failed check is domain.ErrForbidden,
// never a silent no-op. Mutations run inside one transaction per call.
type Service struct {
	log     *slog.Logger
	entries entryRepo
	tx      txManager
}

// NewService creates a journal service.
func NewService(logger *slog.Logger, entries entryRepo, tx txManager) *Service {
	return &Service{
		log:     logger.With("service", "journal"),
		entries: entries,
		tx:      tx,
	}
}

// requirePermission checks the policy table for the context identity.
func requirePermission(ctx context.Context, action domain.Action) error {
	identity := ctxutil.IdentityFromCtx(ctx)
	if !identity.Can(action) {
		return fmt.Errorf("%s: %w", action, domain.ErrForbidden)
	}
	return nil
}

// List returns all entries, newest first.
func (s *Service) List(ctx context.Context) ([]domain.Entry, error) {
	if err := requirePermission(ctx, domain.ActionView); err != nil {
		return nil, err
	}

	entries, err := s.entries.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("journal.List: %w", err)
	}
	return entries, nil
}

// Get returns a single entry by id.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Entry, error) {
	if err := requirePermission(ctx, domain.ActionView); err != nil {
		return nil, err
	}

	e, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("journal.Get: %w", err)
	}
	return e, nil
}

// Create validates the form input and persists a new entry.
//
// The duplicate-title pre-check produces the friendly field error; the
// unique constraint in the store remains the authority when two creates
// race, so the insert can still come back with ErrAlreadyExists.
func (s *Service) Create(ctx context.Context, input EntryInput) (*domain.Entry, error) {
	if err := requirePermission(ctx, domain.ActionCreate); err != nil {
		return nil, err
	}

	input.Title = strings.TrimSpace(input.Title)
	if err := s.validateInput(ctx, input, nil); err != nil {
		return nil, err
	}

	var created *domain.Entry
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.entries.Create(ctx, input.Title, input.Text)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, duplicateTitleError()
		}
		return nil, fmt.Errorf("journal.Create: %w", err)
	}

	s.log.InfoContext(ctx, "entry created",
		slog.Int64("entry_id", created.ID),
		slog.String("title", created.Title))

	return created, nil
}

// Update validates the form input and replaces title/text of an existing
// entry, preserving id and created. The uniqueness check excludes the entry
// itself, so saving with an unchanged title succeeds.
func (s *Service) Update(ctx context.Context, id int64, input EntryInput) (*domain.Entry, error) {
	if err := requirePermission(ctx, domain.ActionEdit); err != nil {
		return nil, err
	}

	current, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("journal.Update: %w", err)
	}

	input.Title = strings.TrimSpace(input.Title)
	if err := s.validateInput(ctx, input, current); err != nil {
		return nil, err
	}

	var updated *domain.Entry
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.entries.Update(ctx, id, input.Title, input.Text)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, duplicateTitleError()
		}
		return nil, fmt.Errorf("journal.Update: %w", err)
	}

	s.log.InfoContext(ctx, "entry updated", slog.Int64("entry_id", id))

	return updated, nil
}

// Delete removes a single entry. A missing id is domain.ErrNotFound.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := requirePermission(ctx, domain.ActionDelete); err != nil {
		return err
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.entries.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("journal.Delete: %w", err)
	}

	s.log.InfoContext(ctx, "entry deleted", slog.Int64("entry_id", id))

	return nil
}

// DeleteAll removes every entry and returns the deleted count.
func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	if err := requirePermission(ctx, domain.ActionDelete); err != nil {
		return 0, err
	}

	var count int64
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		count, err = s.entries.DeleteAll(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("journal.DeleteAll: %w", err)
	}

	s.log.InfoContext(ctx, "all entries deleted", slog.Int64("count", count))

	return count, nil
}

// validateInput runs the field rules plus the duplicate-title lookup.
// current is nil for add; for edit it excludes the entry's own title.
func (s *Service) validateInput(ctx context.Context, input EntryInput, current *domain.Entry) error {
	errs := input.fieldErrors()

	// Only bother with the store lookup when the title itself is valid.
	if input.Title != "" && len(input.Title) <= domain.MaxTitleLength {
		existing, err := s.entries.GetByTitle(ctx, input.Title)
		switch {
		case err == nil:
			if current == nil || existing.ID != current.ID {
				errs = append(errs, domain.FieldError{Field: "title", Message: msgDuplicateTitle})
			}
		case errors.Is(err, domain.ErrNotFound):
			// free to use
		default:
			return fmt.Errorf("journal.validate title lookup: %w", err)
		}
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func duplicateTitleError() error {
	return domain.NewValidationError("title", msgDuplicateTitle)
}
