package api

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/listenupapp/listenup-lists/internal/domain"
	domainerrors "github.com/listenupapp/listenup-lists/internal/errors"
	"github.com/listenupapp/listenup-lists/internal/http/response"
	"github.com/listenupapp/listenup-lists/internal/logger"
)

//go:embed templates/*.html static/*
var assets embed.FS

// Page template names.
const (
	pageAbout    = "about"
	pageLogin    = "login"
	pageRegister = "register"
	pageUser     = "user"
	pageAdd      = "add"
	pageList     = "list"
	pageError    = "error"
)

var pageNames = []string{pageAbout, pageLogin, pageRegister, pageUser, pageAdd, pageList, pageError}

// pageData is the view model shared by every page.
type pageData struct {
	Title         string
	IsLoggedIn    bool
	Username      string
	UserLists     []domain.ListSummary
	GoogleEnabled bool

	// List page.
	ListTitle string
	ListKey   string
	Items     []domain.Item

	// Forms.
	FormUsername string
	Error        string
	Status       int
}

// parseTemplates parses each page together with the shared layout.
func parseTemplates() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.ParseFS(assets, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// staticFiles serves the embedded stylesheet.
func staticFiles() http.Handler {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err) // the embed pattern guarantees the directory
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// newPage builds the view model for the request, including the sidebar lists of a signed-in user.
func (s *Server) newPage(r *http.Request, title string) pageData {
	data := pageData{
		Title:         title,
		GoogleEnabled: s.google != nil,
	}

	user, ok := CurrentUser(r.Context())
	if !ok {
		return data
	}

	data.IsLoggedIn = true
	data.Username = user.Name()

	lists, err := s.lists.Dashboard(r.Context(), user.ID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to load lists for page", "user_id", user.ID, "error", err)
		return data
	}
	data.UserLists = lists
	return data
}

// render writes a page. Templates render into a buffer so a failure can still produce a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	tmpl, ok := s.pages[page]
	if !ok {
		s.fail(w, r, fmt.Errorf("unknown page %q", page))
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		logger.FromContext(r.Context()).Error("Failed to execute template", "page", page, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", CacheNoStore)
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w) //nolint:errcheck // Client went away
}

// renderStatus writes a short error: the envelope for API requests, the error page otherwise.
func (s *Server) renderStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	if isAPIRequest(r) {
		response.Error(w, status, domainerrors.Code(statusToCode(status)), message, nil)
		return
	}

	data := s.newPage(r, http.StatusText(status))
	data.Error = message
	data.Status = status
	s.render(w, r, status, pageError, data)
}

// fail reports err. Domain errors keep their status and message;
// anything else is logged with the request ID and shown as a generic 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) && domainErr.Code != domainerrors.CodeInternal {
		s.renderStatus(w, r, domainErr.HTTPStatus(), domainErr.Message)
		return
	}

	logger.FromContext(r.Context()).Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	s.renderStatus(w, r, http.StatusInternalServerError, "Something went wrong. Please try again.")
}

// handleNotFound serves unknown paths.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderStatus(w, r, http.StatusNotFound, "Page not found.")
}
