package web

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/avolkova/journal/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages lists the content templates; each is parsed together with the
// shared layout so pages can't drift apart structurally.
var pages = []string{"list", "detail", "form", "login", "logged_out"}

// renderer holds the parsed page templates.
type renderer struct {
	log       *slog.Logger
	templates map[string]*template.Template
}

func newRenderer(logger *slog.Logger) (*renderer, error) {
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		templates[page] = t
	}
	return &renderer{log: logger, templates: templates}, nil
}

// render writes a page with the given status. A missing template or an
// execution failure is a programming error and results in a plain 500.
func (r *renderer) render(w http.ResponseWriter, status int, page string, data any) {
	t, ok := r.templates[page]
	if !ok {
		r.log.Error("unknown template", slog.String("page", page))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		r.log.Error("execute template", slog.String("page", page), slog.String("error", err.Error()))
	}
}

// listData feeds the entry listing page.
type listData struct {
	Identity domain.Identity
	Entries  []domain.Entry
}

// detailData feeds the single-entry page; HTML is the markdown-rendered text.
type detailData struct {
	Identity domain.Identity
	Entry    *domain.Entry
	HTML     template.HTML
}

// formData feeds the shared add/edit form. Values preserves the submission
// on a failed validation; Errors maps field name to its messages.
type formData struct {
	Identity domain.Identity
	Editing  bool
	EntryID  int64
	Values   map[string]string
	Errors   map[string][]string
}

// loginData feeds the login form.
type loginData struct {
	Identity domain.Identity
	Values   map[string]string
	Errors   map[string][]string
}

// loggedOutData feeds the logout confirmation page.
type loggedOutData struct {
	Identity domain.Identity
}
