package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/jrsteele09/go-admin-console/users"
	"github.com/jrsteele09/go-admin-console/validation"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"

	layoutTemplate   = "layout.html"
	loginTemplate    = "login.html"
	registerTemplate = "register.html"
	welcomeTemplate  = "welcome.html"
	usersTemplate    = "users.html"
)

//go:embed templates/*
var templateFiles embed.FS

func TemplateFilesFS() fs.FS {
	// Create the sub filesystem once
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a page from the embedded filesystem together with the
// layout it renders into.
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(layoutTemplate).ParseFS(TemplateFilesFS(), layoutTemplate, name)
}

// PageData is the model shared by every page
type PageData struct {
	AppName string
	User    *users.User // signed in user, nil when anonymous
	Notice  string
	Values  validation.Values
	Errors  validation.Result
}

// pages holds every parsed page by template name
type pages map[string]*template.Template

func parsePages() (pages, error) {
	p := make(pages)
	for _, name := range []string{loginTemplate, registerTemplate, welcomeTemplate, usersTemplate} {
		tmpl, err := ParseTemplate(name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		p[name] = tmpl
	}
	return p, nil
}

// render executes the page into a buffer first so a template failure can
// still produce a clean 500.
func (p pages) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := p[name].Execute(&buf, data); err != nil {
		logError(r.Method, r.URL.Path, err.Error())
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// pageData shows the signed in user only to the operator's browser
func (s *Server) pageData(r *http.Request, notice string) PageData {
	data := PageData{
		AppName: s.config.GetAppName(),
		Notice:  notice,
	}
	if s.isOperator(r) {
		data.User = s.store.Get().User
	}
	return data
}
