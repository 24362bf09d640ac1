package web

import (
	"context"
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/calendar"
	"github.com/erazemk/zaloga/internal/ledger"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/notify"
	"github.com/erazemk/zaloga/internal/storage"
	webembed "github.com/erazemk/zaloga/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"roleAtLeast": model.RoleAtLeast,
		"roleName": func(role string) string {
			switch role {
			case model.RoleAdmin:
				return "Administrator"
			case model.RoleFamily:
				return "Family"
			case model.RoleGuest:
				return "Guest"
			default:
				return role
			}
		},
		"categoryName": func(c model.Category) string {
			switch c {
			case model.CategoryFirearm:
				return "Firearms"
			case model.CategoryAmmo:
				return "Ammunition"
			case model.CategoryFilament:
				return "Filament"
			case model.CategoryInstrument:
				return "Instruments"
			default:
				return "Other"
			}
		},
		"dayColor": calendar.DayColor,
		"date": func(t time.Time) string {
			return t.Format(model.DateLayout)
		},
		"clock": func(t time.Time) string {
			return t.Format("15:04")
		},
	}
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	// Read layout.
	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"login.html",
		"dashboard.html",
		"items.html",
		"item_detail.html",
		"ammo.html",
		"alerts.html",
		"calendar.html",
		"users.html",
		"settings.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	User    *auth.Claims
	Error   string
	Success string
}

// Sender delivers one message to a notification person.
type Sender interface {
	Send(ctx context.Context, personID int64, message string) notify.Result
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB         *sql.DB
	Templates  *Templates
	JWTSecret  string
	Ledger     *ledger.Service
	Sender     Sender
	Objects    storage.ObjectStore
	PresignTTL time.Duration
}

func (s *Server) page(r *http.Request, title string) PageData {
	q := r.URL.Query()
	return PageData{
		Title:   title,
		User:    GetWebClaims(r.Context()),
		Error:   q.Get("error"),
		Success: q.Get("ok"),
	}
}
