// Package web serves the server-rendered HTML surface of the journal:
// listing, detail, add/edit forms, login/logout, and the delete routes.
//
// Every handler resolves to one of three outcomes: a rendered page (200),
// a redirect (302), or a terminal error (403, 404, 500). Validation
// failures are recovered into a form re-render with the submitted values
// preserved and never escalate to a 500.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/avolkova/journal/internal/domain"
	"github.com/avolkova/journal/internal/markdown"
	"github.com/avolkova/journal/internal/service/journal"
	"github.com/avolkova/journal/internal/service/session"
	"github.com/avolkova/journal/internal/transport/middleware"
	"github.com/avolkova/journal/pkg/ctxutil"
)

// journalService defines the entry operations needed by the handlers.
type journalService interface {
	List(ctx context.Context) ([]domain.Entry, error)
	Get(ctx context.Context, id int64) (*domain.Entry, error)
	Create(ctx context.Context, input journal.EntryInput) (*domain.Entry, error)
	Update(ctx context.Context, id int64, input journal.EntryInput) (*domain.Entry, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
}

// sessionService defines the credential operations needed by the handlers.
type sessionService interface {
	Authenticate(ctx context.Context, input session.LoginInput) (domain.Identity, error)
	IssueToken(identity domain.Identity) (string, error)
}

// Handler serves all journal routes.
type Handler struct {
	journal  journalService
	sessions sessionService
	render   *renderer
	log      *slog.Logger
}

// NewHandler creates the web handler.
func NewHandler(journalSvc journalService, sessionSvc sessionService, logger *slog.Logger) (*Handler, error) {
	render, err := newRenderer(logger)
	if err != nil {
		return nil, err
	}

	return &Handler{
		journal:  journalSvc,
		sessions: sessionSvc,
		render:   render,
		log:      logger.With("handler", "web"),
	}, nil
}

// storeErrMsg is the one infrastructure message end users may see. It tells
// the operator what to check; nothing else about the failure leaks out.
const storeErrMsg = `The journal is having a problem using your database. The problem
might be caused by one of the following things:

1.  The database schema may not be initialized. The server applies its
    migrations at startup; check the startup log for migration errors.

2.  Your database server may not be running. Check that the database
    referred to by the DATABASE_DSN setting is up and reachable.

After you fix the problem, please restart the application to try it again.
`

// List handles GET /.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.journal.List(r.Context())
	if err != nil {
		h.terminalError(w, r, err)
		return
	}

	h.render.render(w, http.StatusOK, "list", listData{
		Identity: ctxutil.IdentityFromCtx(r.Context()),
		Entries:  entries,
	})
}

// Detail handles GET /detail/{id}.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := h.entryID(w, r)
	if !ok {
		return
	}

	entry, err := h.journal.Get(r.Context(), id)
	if err != nil {
		h.terminalError(w, r, err)
		return
	}

	html, err := markdown.Render(entry.Text)
	if err != nil {
		h.terminalError(w, r, err)
		return
	}

	h.render.render(w, http.StatusOK, "detail", detailData{
		Identity: ctxutil.IdentityFromCtx(r.Context()),
		Entry:    entry,
		HTML:     html,
	})
}

// AddForm handles GET /add.
func (h *Handler) AddForm(w http.ResponseWriter, r *http.Request) {
	identity := ctxutil.IdentityFromCtx(r.Context())
	if !identity.Can(domain.ActionCreate) {
		h.forbidden(w, r)
		return
	}

	h.render.render(w, http.StatusOK, "form", formData{
		Identity: identity,
		Values:   map[string]string{},
		Errors:   map[string][]string{},
	})
}

// AddSubmit handles POST /add.
func (h *Handler) AddSubmit(w http.ResponseWriter, r *http.Request) {
	identity := ctxutil.IdentityFromCtx(r.Context())
	input := journal.EntryInput{
		Title: r.PostFormValue("title"),
		Text:  r.PostFormValue("text"),
	}

	created, err := h.journal.Create(r.Context(), input)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			h.render.render(w, http.StatusOK, "form", formData{
				Identity: identity,
				Values:   entryValues(input),
				Errors:   vErr.ByField(),
			})
			return
		}
		h.terminalError(w, r, err)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/detail/%d", created.ID), http.StatusFound)
}

// EditForm handles GET /edit/{id}.
func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	identity := ctxutil.IdentityFromCtx(r.Context())
	if !identity.Can(domain.ActionEdit) {
		h.forbidden(w, r)
		return
	}

	id, ok := h.entryID(w, r)
	if !ok {
		return
	}

	entry, err := h.journal.Get(r.Context(), id)
	if err != nil {
		h.terminalError(w, r, err)
		return
	}

	h.render.render(w, http.StatusOK, "form", formData{
		Identity: identity,
		Editing:  true,
		EntryID:  entry.ID,
		Values:   map[string]string{"title": entry.Title, "text": entry.Text},
		Errors:   map[string][]string{},
	})
}

// EditSubmit handles POST /edit/{id}.
func (h *Handler) EditSubmit(w http.ResponseWriter, r *http.Request) {
	identity := ctxutil.IdentityFromCtx(r.Context())

	id, ok := h.entryID(w, r)
	if !ok {
		return
	}

	input := journal.EntryInput{
		Title: r.PostFormValue("title"),
		Text:  r.PostFormValue("text"),
	}

	updated, err := h.journal.Update(r.Context(), id, input)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			h.render.render(w, http.StatusOK, "form", formData{
				Identity: identity,
				Editing:  true,
				EntryID:  id,
				Values:   entryValues(input),
				Errors:   vErr.ByField(),
			})
			return
		}
		h.terminalError(w, r, err)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/detail/%d", updated.ID), http.StatusFound)
}

// LoginForm handles GET /login.
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render.render(w, http.StatusOK, "login", loginData{
		Identity: ctxutil.IdentityFromCtx(r.Context()),
		Values:   map[string]string{},
		Errors:   map[string][]string{},
	})
}

// LoginSubmit handles POST /login.
//
// A failed authentication re-renders the form with one generic message on
// the password field: whether the username or the password was wrong is
// deliberately not revealed.
func (h *Handler) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	input := session.LoginInput{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}

	identity, err := h.sessions.Authenticate(r.Context(), input)
	if err != nil {
		formErrors := map[string][]string{}
		var vErr *domain.ValidationError
		switch {
		case errors.As(err, &vErr):
			formErrors = vErr.ByField()
		case errors.Is(err, domain.ErrUnauthorized):
			formErrors["password"] = []string{"Invalid username or password."}
		default:
			h.terminalError(w, r, err)
			return
		}

		h.render.render(w, http.StatusOK, "login", loginData{
			Identity: ctxutil.IdentityFromCtx(r.Context()),
			Values:   map[string]string{"username": input.Username},
			Errors:   formErrors,
		})
		return
	}

	token, err := h.sessions.IssueToken(identity)
	if err != nil {
		h.terminalError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout handles GET /logout: clears the session cookie and confirms.
// There is no server-side session state to revoke.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/logged_out", http.StatusFound)
}

// LoggedOut handles GET /logged_out.
func (h *Handler) LoggedOut(w http.ResponseWriter, r *http.Request) {
	h.render.render(w, http.StatusOK, "logged_out", loggedOutData{
		Identity: ctxutil.IdentityFromCtx(r.Context()),
	})
}

// DeleteOne handles GET /delete_one/{id}. Deleting a missing entry is a
// 404, consistent with the detail and edit routes.
func (h *Handler) DeleteOne(w http.ResponseWriter, r *http.Request) {
	id, ok := h.entryID(w, r)
	if !ok {
		return
	}

	if err := h.journal.Delete(r.Context(), id); err != nil {
		h.terminalError(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// DeleteAll handles GET /delete_all.
func (h *Handler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	if _, err := h.journal.DeleteAll(r.Context()); err != nil {
		h.terminalError(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// entryID parses the {id} path value; a malformed id is a 404 since no
// entry can live at that path.
func (h *Handler) entryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, fmt.Sprintf("entry %s not found", raw), http.StatusNotFound)
		return 0, false
	}
	return id, true
}

func (h *Handler) forbidden(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "forbidden", http.StatusForbidden)
}

// terminalError maps service errors to terminal HTTP outcomes.
func (h *Handler) terminalError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		h.forbidden(w, r)
	case errors.Is(err, domain.ErrNotFound):
		id := r.PathValue("id")
		http.Error(w, fmt.Sprintf("entry %s not found", id), http.StatusNotFound)
	case errors.Is(err, domain.ErrStoreUnavailable):
		h.log.ErrorContext(r.Context(), "store unavailable", slog.String("error", err.Error()))
		http.Error(w, storeErrMsg, http.StatusInternalServerError)
	default:
		h.log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func entryValues(input journal.EntryInput) map[string]string {
	return map[string]string{"title": input.Title, "text": input.Text}
}
