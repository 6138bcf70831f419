package web

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/avolkova/journal/internal/domain"
	"github.com/avolkova/journal/internal/service/journal"
	"github.com/avolkova/journal/internal/service/session"
	"github.com/avolkova/journal/internal/transport/middleware"
)

type journalServiceMock struct {
	listFunc      func(ctx context.Context) ([]domain.Entry, error)
	getFunc       func(ctx context.Context, id int64) (*domain.Entry, error)
	createFunc    func(ctx context.Context, input journal.EntryInput) (*domain.Entry, error)
	updateFunc    func(ctx context.Context, id int64, input journal.EntryInput) (*domain.Entry, error)
	deleteFunc    func(ctx context.Context, id int64) error
	deleteAllFunc func(ctx context.Context) (int64, error)
}

func (m *journalServiceMock) List(ctx context.Context) ([]domain.Entry, error) {
	return m.listFunc(ctx)
}

func (m *journalServiceMock) Get(ctx context.Context, id int64) (*domain.Entry, error) {
	return m.getFunc(ctx, id)
}

func (m *journalServiceMock) Create(ctx context.Context, input journal.EntryInput) (*domain.Entry, error) {
	return m.createFunc(ctx, input)
}

func (m *journalServiceMock) Update(ctx context.Context, id int64, input journal.EntryInput) (*domain.Entry, error) {
	return m.updateFunc(ctx, id, input)
}

func (m *journalServiceMock) Delete(ctx context.Context, id int64) error {
	return m.deleteFunc(ctx, id)
}

func (m *journalServiceMock) DeleteAll(ctx context.Context) (int64, error) {
	return m.deleteAllFunc(ctx)
}

type sessionServiceMock struct {
	authFunc  func(ctx context.Context, input session.LoginInput) (domain.Identity, error)
	issueFunc func(identity domain.Identity) (string, error)
}

func (m *sessionServiceMock) Authenticate(ctx context.Context, input session.LoginInput) (domain.Identity, error) {
	return m.authFunc(ctx, input)
}

func (m *sessionServiceMock) IssueToken(identity domain.Identity) (string, error) {
	return m.issueFunc(identity)
}

// resolverMock maps known token strings to identities; anything else is anonymous.
type resolverMock struct {
	tokens map[string]domain.Identity
}

func (m *resolverMock) ResolveToken(token string) domain.Identity {
	if identity, ok := m.tokens[token]; ok {
		return identity
	}
	return domain.Anonymous
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRouter builds the full router around mocks so requests travel the
// real middleware chain and route table.
func newTestRouter(t *testing.T, svc *journalServiceMock, sessions *sessionServiceMock) http.Handler {
	t.Helper()

	logger := testLogger()
	h, err := NewHandler(svc, sessions, logger)
	if err != nil {
		t.Fatalf("failed to build handler: %v", err)
	}

	rl := middleware.NewRateLimiter(time.Minute)
	t.Cleanup(rl.Stop)

	return NewRouter(RouterDeps{
		Handler: h,
		Health:  NewHealthHandler(&pingerMock{}, "test"),
		Resolver: &resolverMock{tokens: map[string]domain.Identity{
			"admin-token":  {Username: "avolkova", Role: domain.RoleAdmin},
			"editor-token": {Username: "guest", Role: domain.RoleEditor},
		}},
		Limiter:        rl,
		LoginRateLimit: 100,
		Logger:         logger,
	})
}

type pingerMock struct{ err error }

func (m *pingerMock) Ping(_ context.Context) error { return m.err }

func doRequest(router http.Handler, method, target, token string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestList_RendersEntries(t *testing.T) {
	svc := &journalServiceMock{
		listFunc: func(_ context.Context) ([]domain.Entry, error) {
			return []domain.Entry{
				{ID: 2, Title: "Second post", Created: time.Now()},
				{ID: 1, Title: "First post", Created: time.Now().Add(-time.Hour)},
			}, nil
		},
	}
	router := newTestRouter(t, svc, &sessionServiceMock{})

	rec := doRequest(router, http.MethodGet, "/", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Second post") || !strings.Contains(body, "First post") {
		t.Errorf("expected both titles in body, got:\n%s", body)
	}
	if strings.Contains(body, "/delete_one/") {
		t.Error("anonymous listing must not offer delete links")
	}
}

func TestList_AdminSeesDeleteLinks(t *testing.T) {
	svc := &journalServiceMock{
		listFunc: func(_ context.Context) ([]domain.Entry, error) {
			return []domain.Entry{{ID: 7, Title: "Only post", Created: time.Now()}}, nil
		},
	}
	router := newTestRouter(t, svc, &sessionServiceMock{})

	rec := doRequest(router, http.MethodGet, "/", "admin-token", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/delete_one/7") {
		t.Error("expected delete link for admin")
	}
}

func TestList_StoreUnavailable(t *testing.T) {
	svc := &journalServiceMock{
		listFunc: func(_ context.Context) ([]domain.Entry, error) {
			return nil, fmt.Errorf("list entries: %w", domain.ErrStoreUnavailable)
		},
	}
	router := newTestRouter(t, svc, &sessionServiceMock{})

	rec := doRequest(router, http.MethodGet, "/", "", nil)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "DATABASE_DSN") {
		t.Error("expected operator diagnostic in response body")
	}
}

func TestDetail_RendersMarkdown(t *testing.T) {
	svc := &journalServiceMock{
		getFunc: func(_ context.Context, id int64) (*domain.Entry, error) {
			if id != 3 {
				t.Fatalf("expected id 3, got %d", id)
			}
			return &domain.Entry{ID: 3, Title: "Notes", Text: "Some **bold** text", Created: time.Now()}, nil
		},
	}
	router := newTestRouter(t, svc, &sessionServiceMock{})

	rec := doRequest(router, http.MethodGet, "/detail/3", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<strong>bold</strong>") {
		t.Errorf("expected rendered markdown, got:\n%s", rec.Body.String())
	}
}

func TestDetail_NotFound(t *testing.T) {
	svc := &journalServiceMock{
		getFunc: func(_ context.Context, id int64) (*domain.Entry, error) {
			return nil, fmt.Errorf("entry %d: %w", id, domain.ErrNotFound)
		},
	}
	router := newTestRouter(t, svc, &sessionServiceMock{})

	rec := doRequest(router, http.MethodGet, "/detail/99", "", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "99") {
		t.Error("expected the missing id in the 404 body")
	}
}

func TestDetail_MalformedID(t *testing.T) {
	router := newTestRouter(t, &journalServiceMock{}, &sessionServiceMock{})

	rec := doRequest(router, http.MethodGet, "/detail/abc", "", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestAddForm_AnonymousForbidden(t *testing.T) {
	router := newTestRouter(t, &journalServiceMock{}, &sessionServiceMock{})

	rec := doRequest(router, http.MethodGet, "/add", "", nil)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
}

func TestAddForm_EditorGetsEmptyForm(t *testing.T) {
	router := newTestRouter(t, &journalServiceMock{}, &sessionServiceMock{})

	rec := doRequest(router, http.MethodGet, "/add", "editor-token", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `action="/add"`) {
		t.Error("expected form posting to /add")
	}
}

func TestAddSubmit_RedirectsToDetail(t *testing.T) {
	svc := &journalServiceMock{
		createFunc: func(_ context.Context, input journal.EntryInput) (*domain.Entry, error) {
			return &domain.Entry{ID: 12, Title: input.Title, Text: input.Text, Created: time.Now()}, nil
		},
	}
	router := newTestRouter(t, svc, &sessionServiceMock{})

	rec := doRequest(router, http.MethodPost, "/add", "editor-token", url.Values{
		"title": {"A fine day"},
		"text":  {"It was."},
	})

	if rec.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/detail/12" {
		t.Errorf("expected redirect to /detail/12, got %q", loc)
	}
}

func TestAddSubmit_ValidationRerendersForm(t *testing.T) {
	svc := &journalServiceMock{
		createFunc: func(_ context.Context, input journal.EntryInput) (*domain.Entry, error) {
			return nil, domain.NewValidationError("title", "An entry with that title already exists.")
		},
	}
	router := newTestRouter(t, svc, &sessionServiceMock{})

	rec := doRequest(router, http.MethodPost, "/add", "editor-token", url.Values{
		"title": {"Taken title"},
		"text":  {"Body text."},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 re-render, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "An entry with that title already exists.") {
		t.Error("expected the duplicate-title message")
	}
	if !strings.Contains(body, "Taken title") || !strings.Contains(body, "Body text.") {
		t.Error("expected the submitted values to be preserved")
	}
}

func TestAddSubmit_AnonymousForbidden(t *testing.T) {
	svc := &journalServiceMock{
		createFunc: func(_ context.Context, _ journal.EntryInput) (*domain.Entry, error) {
			return nil, domain.ErrForbidden
		},
	}
	router := newTestRouter(t, svc, &sessionServiceMock{})

	rec := doRequest(router, http.MethodPost, "/add", "", url.Values{
		"title": {"x"}, "text": {"y"},
	})

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
}

func TestEditForm_PrefillsValues(t *testing.T) {
	svc := &journalServiceMock{
		getFunc: func(_ context.Context, id int64) (*domain.Entry, error) {
			return &domain.Entry{ID: id, Title: "Old title", Text: "Old text", Created: time.Now()}, nil
		},
	}
	router := newTestRouter(t, svc, &sessionServiceMock{})

	rec := doRequest(router, http.MethodGet, "/edit/4", "editor-token", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Old title") || !strings.Contains(body, "Old text") {
		t.Error("expected current values in the edit form")
	}
	if !strings.Contains(body, `action="/edit/4"`) {
		t.Error("expected form posting back to /edit/4")
	}
}

func TestEditSubmit_RedirectsToDetail(t *testing.T) {
	svc := &journalServiceMock{
		updateFunc: func(_ context.Context, id int64, input journal.EntryInput) (*domain.Entry, error) {
			return &domain.Entry{ID: id, Title: input.Title, Text: input.Text, Created: time.Now()}, nil
		},
	}
	router := newTestRouter(t, svc, &sessionServiceMock{})

	rec := doRequest(router, http.MethodPost, "/edit/4", "editor-token", url.Values{
		"title": {"New title"}, "text": {"New text"},
	})

	if rec.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/detail/4" {
		t.Errorf("expected redirect to /detail/4, got %q", loc)
	}
}

func TestLoginSubmit_SetsCookieAndRedirects(t *testing.T) {
	sessions := &sessionServiceMock{
		authFunc: func(_ context.Context, input session.LoginInput) (domain.Identity, error) {
			return domain.Identity{Username: input.Username, Role: domain.RoleAdmin}, nil
		},
		issueFunc: func(_ domain.Identity) (string, error) {
			return "issued-token", nil
		},
	}
	router := newTestRouter(t, &journalServiceMock{}, sessions)

	rec := doRequest(router, http.MethodPost, "/login", "", url.Values{
		"username": {"avolkova"}, "password": {"secret"},
	})

	if rec.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("expected redirect to /, got %q", loc)
	}

	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			found = c
		}
	}
	if found == nil {
		t.Fatal("expected session cookie to be set")
	}
	if found.Value != "issued-token" {
		t.Errorf("expected cookie value 'issued-token', got %q", found.Value)
	}
	if !found.HttpOnly {
		t.Error("expected HttpOnly cookie")
	}
}

func TestLoginSubmit_BadPasswordNoCookie(t *testing.T) {
	sessions := &sessionServiceMock{
		authFunc: func(_ context.Context, _ session.LoginInput) (domain.Identity, error) {
			return domain.Anonymous, domain.ErrUnauthorized
		},
	}
	router := newTestRouter(t, &journalServiceMock{}, sessions)

	rec := doRequest(router, http.MethodPost, "/login", "", url.Values{
		"username": {"avolkova"}, "password": {"wrong"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 re-render, got %d", rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("expected no cookie on failed login")
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Invalid username or password.") {
		t.Error("expected the generic failure message")
	}
	if !strings.Contains(body, "avolkova") {
		t.Error("expected the submitted username to be preserved")
	}
}

func TestLoginSubmit_ValidationMessages(t *testing.T) {
	sessions := &sessionServiceMock{
		authFunc: func(_ context.Context, _ session.LoginInput) (domain.Identity, error) {
			return domain.Anonymous, &domain.ValidationError{Errors: []domain.FieldError{
				{Field: "username", Message: "Username is required."},
				{Field: "password", Message: "Password is required."},
			}}
		},
	}
	router := newTestRouter(t, &journalServiceMock{}, sessions)

	rec := doRequest(router, http.MethodPost, "/login", "", url.Values{})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 re-render, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Username is required.") || !strings.Contains(body, "Password is required.") {
		t.Errorf("expected both validation messages, got:\n%s", body)
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	router := newTestRouter(t, &journalServiceMock{}, &sessionServiceMock{})

	rec := doRequest(router, http.MethodGet, "/logout", "admin-token", nil)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/logged_out" {
		t.Errorf("expected redirect to /logged_out, got %q", loc)
	}

	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			found = c
		}
	}
	if found == nil {
		t.Fatal("expected an expiring session cookie")
	}
	if found.MaxAge >= 0 {
		t.Errorf("expected negative MaxAge, got %d", found.MaxAge)
	}
}

func TestDeleteOne_RedirectsHome(t *testing.T) {
	var deleted int64
	svc := &journalServiceMock{
		deleteFunc: func(_ context.Context, id int64) error {
			deleted = id
			return nil
		},
	}
	router := newTestRouter(t, svc, &sessionServiceMock{})

	rec := doRequest(router, http.MethodGet, "/delete_one/5", "admin-token", nil)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", rec.Code)
	}
	if deleted != 5 {
		t.Errorf("expected delete of id 5, got %d", deleted)
	}
}

func TestDeleteOne_MissingEntry(t *testing.T) {
	svc := &journalServiceMock{
		deleteFunc: func(_ context.Context, id int64) error {
			return fmt.Errorf("entry %d: %w", id, domain.ErrNotFound)
		},
	}
	router := newTestRouter(t, svc, &sessionServiceMock{})

	rec := doRequest(router, http.MethodGet, "/delete_one/123", "admin-token", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "123") {
		t.Error("expected the missing id in the 404 body")
	}
}

func TestDeleteAll_EditorForbidden(t *testing.T) {
	svc := &journalServiceMock{
		deleteAllFunc: func(_ context.Context) (int64, error) {
			return 0, domain.ErrForbidden
		},
	}
	router := newTestRouter(t, svc, &sessionServiceMock{})

	rec := doRequest(router, http.MethodGet, "/delete_all", "editor-token", nil)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
}

func TestRouter_AccessLogCarriesUsername(t *testing.T) {
	svc := &journalServiceMock{
		listFunc: func(_ context.Context) ([]domain.Entry, error) { return nil, nil },
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h, err := NewHandler(svc, &sessionServiceMock{}, logger)
	if err != nil {
		t.Fatalf("failed to build handler: %v", err)
	}

	rl := middleware.NewRateLimiter(time.Minute)
	t.Cleanup(rl.Stop)

	router := NewRouter(RouterDeps{
		Handler: h,
		Health:  NewHealthHandler(&pingerMock{}, "test"),
		Resolver: &resolverMock{tokens: map[string]domain.Identity{
			"admin-token": {Username: "avolkova", Role: domain.RoleAdmin},
		}},
		Limiter:        rl,
		LoginRateLimit: 100,
		Logger:         logger,
	})

	doRequest(router, http.MethodGet, "/", "admin-token", nil)

	// The session must be resolved before the access log line is written,
	// otherwise every request logs as anonymous.
	if !strings.Contains(buf.String(), `"username":"avolkova"`) {
		t.Errorf("expected username in access log, got:\n%s", buf.String())
	}
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, &journalServiceMock{}, &sessionServiceMock{})

	rec := doRequest(router, http.MethodGet, "/healthz", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}
}

func TestStatic_Stylesheet(t *testing.T) {
	router := newTestRouter(t, &journalServiceMock{}, &sessionServiceMock{})

	rec := doRequest(router, http.MethodGet, "/static/style.css", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}
