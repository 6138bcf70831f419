// Package entry implements the journal entry repository using PostgreSQL.
//
// Writes use raw SQL constants; reads go through squirrel so the listing
// query and the title lookup share one column set and placeholder style.
// Title uniqueness is enforced by the UNIQUE constraint on entries.title:
// concurrent creates with the same title race inside the database, never in
// application code, and the loser surfaces domain.ErrAlreadyExists.
package entry

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/avolkova/journal/internal/adapter/postgres"
	"github.com/avolkova/journal/internal/domain"
)

// Repo provides entry persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new entry repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var entryColumns = []string{"id", "title", "text", "created"}

const createSQL = `
INSERT INTO entries (title, text)
VALUES ($1, $2)
RETURNING id, title, text, created`

const importSQL = `
INSERT INTO entries (title, text, created)
VALUES ($1, $2, $3)
RETURNING id, title, text, created`

const updateSQL = `
UPDATE entries
SET title = $2, text = $3
WHERE id = $1
RETURNING id, title, text, created`

const deleteSQL = `
DELETE FROM entries WHERE id = $1`

const deleteAllSQL = `
DELETE FROM entries`

// Create inserts a new entry; id and created are assigned by the database.
// Returns domain.ErrAlreadyExists if an entry with the same title exists.
func (r *Repo) Create(ctx context.Context, title, text string) (*domain.Entry, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, createSQL, title, text)

	e, err := scanEntry(row)
	if err != nil {
		return nil, postgres.MapError(err, "entry", 0)
	}

	return e, nil
}

// Import inserts an entry with an explicit created timestamp. Used by the
// one-time import command; the web surface always goes through Create.
func (r *Repo) Import(ctx context.Context, title, text string, created time.Time) (*domain.Entry, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, importSQL, title, text, created)

	e, err := scanEntry(row)
	if err != nil {
		return nil, postgres.MapError(err, "entry", 0)
	}

	return e, nil
}

// GetByID returns an entry by primary key.
// Returns domain.ErrNotFound if the entry does not exist.
func (r *Repo) GetByID(ctx context.Context, id int64) (*domain.Entry, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	query, args, err := psql.Select(entryColumns...).
		From("entries").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	e, err := scanEntry(querier.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, "entry", id)
	}

	return e, nil
}

// GetByTitle returns an entry by its exact (case-sensitive) title.
// Used by form validation for the friendly duplicate-title message; the
// unique constraint remains the authority under concurrency.
func (r *Repo) GetByTitle(ctx context.Context, title string) (*domain.Entry, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	query, args, err := psql.Select(entryColumns...).
		From("entries").
		Where(sq.Eq{"title": title}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build title query: %w", err)
	}

	e, err := scanEntry(querier.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, "entry", 0)
	}

	return e, nil
}

// List returns all entries ordered by created DESC with id DESC as the
// tie-break, so entries inserted later always list first. The result is
// recomputed on every call.
func (r *Repo) List(ctx context.Context) ([]domain.Entry, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	query, args, err := psql.Select(entryColumns...).
		From("entries").
		OrderBy("created DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, "entry", 0)
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		var e domain.Entry
		if err := rows.Scan(&e.ID, &e.Title, &e.Text, &e.Created); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "entry", 0)
	}

	return entries, nil
}

// Update replaces title and text, preserving id and created.
// Returns domain.ErrNotFound if the entry does not exist and
// domain.ErrAlreadyExists if the new title collides with another entry.
func (r *Repo) Update(ctx context.Context, id int64, title, text string) (*domain.Entry, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, updateSQL, id, title, text)

	e, err := scanEntry(row)
	if err != nil {
		return nil, postgres.MapError(err, "entry", id)
	}

	return e, nil
}

// Delete removes an entry by id.
// Returns domain.ErrNotFound if no row was deleted.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, deleteSQL, id)
	if err != nil {
		return postgres.MapError(err, "entry", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("entry %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// DeleteAll removes every entry and returns the deleted count.
func (r *Repo) DeleteAll(ctx context.Context) (int64, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, deleteAllSQL)
	if err != nil {
		return 0, postgres.MapError(err, "entry", 0)
	}

	return tag.RowsAffected(), nil
}

func scanEntry(row pgx.Row) (*domain.Entry, error) {
	var e domain.Entry
	if err := row.Scan(&e.ID, &e.Title, &e.Text, &e.Created); err != nil {
		return nil, err
	}
	return &e, nil
}
