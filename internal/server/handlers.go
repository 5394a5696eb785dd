package server

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mveld/tanglewiki/wiki"
)

// HomeHandler serves the wiki's front page, redirecting to the creation
// form when it does not exist yet.
func (app *App) HomeHandler(rw http.ResponseWriter, req *http.Request) {
	page, err := app.Pages.Page(req.Context(), "/home", MemberFromContext(req.Context()))
	if errors.Is(err, wiki.ErrPageNotFound) {
		http.Redirect(rw, req, "/new?title=Home", http.StatusSeeOther)
		return
	}
	if err != nil {
		app.serverError(rw, "failed to load front page", err)
		return
	}
	app.renderPage(rw, page)
}

// PageHandler serves a stored page at its canonical path. Registered as the
// router's catch-all, after every fixed route.
func (app *App) PageHandler(rw http.ResponseWriter, req *http.Request) {
	pagePath := req.URL.Path
	page, err := app.Pages.Page(req.Context(), pagePath, MemberFromContext(req.Context()))
	if errors.Is(err, wiki.ErrPageNotFound) {
		rw.WriteHeader(http.StatusNotFound)
		data := map[string]interface{}{
			"Path":  pagePath,
			"Title": titleFromPath(pagePath),
		}
		if err := app.RenderTemplate(rw, "notfound.html", data); err != nil {
			slog.Error("failed to render not-found template", "error", err)
		}
		return
	}
	if err != nil {
		app.serverError(rw, "failed to load page", err)
		return
	}
	app.renderPage(rw, page)
}

func (app *App) renderPage(rw http.ResponseWriter, page *wiki.Page) {
	data := map[string]interface{}{
		"Page":        page,
		"HTML":        template.HTML(page.HTML),
		"Description": page.Description,
	}
	if err := app.RenderTemplate(rw, "page.html", data); err != nil {
		app.serverError(rw, "failed to render page template", err)
	}
}

// NewPageHandler serves the creation form, prefilled from the title query
// parameter when a requested link led here.
func (app *App) NewPageHandler(rw http.ResponseWriter, req *http.Request) {
	title := req.URL.Query().Get("title")
	data := map[string]interface{}{
		"ID":    0,
		"Title": title,
		"Path":  wiki.TitleToPath(title),
		"Body":  "",
	}
	if title == "" {
		data["Path"] = ""
	}
	if err := app.RenderTemplate(rw, "edit.html", data); err != nil {
		app.serverError(rw, "failed to render edit template", err)
	}
}

// EditPageHandler serves the edit form for an existing page.
func (app *App) EditPageHandler(rw http.ResponseWriter, req *http.Request) {
	pagePath := "/" + mux.Vars(req)["path"]
	page, err := app.Pages.Page(req.Context(), pagePath, MemberFromContext(req.Context()))
	if errors.Is(err, wiki.ErrPageNotFound) {
		http.Redirect(rw, req, "/new?title="+url.QueryEscape(titleFromPath(pagePath)), http.StatusSeeOther)
		return
	}
	if err != nil {
		app.serverError(rw, "failed to load page for editing", err)
		return
	}
	data := map[string]interface{}{
		"ID":    page.ID,
		"Title": page.Title,
		"Path":  page.Path,
		"Body":  page.Body,
	}
	if err := app.RenderTemplate(rw, "edit.html", data); err != nil {
		app.serverError(rw, "failed to render edit template", err)
	}
}

// SavePageHandler persists a page from the edit form and redirects to it.
func (app *App) SavePageHandler(rw http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		http.Error(rw, "bad form", http.StatusBadRequest)
		return
	}
	member := MemberFromContext(req.Context())

	var page *wiki.Page
	if id, _ := strconv.Atoi(req.PostFormValue("id")); id > 0 {
		existing, err := app.Pages.PageByID(req.Context(), id, member)
		if err != nil {
			app.saveError(rw, err)
			return
		}
		page = existing
	} else {
		page = &wiki.Page{}
	}

	page.Title = req.PostFormValue("title")
	page.Path = req.PostFormValue("path")
	page.Body = req.PostFormValue("body")

	if err := app.Pages.SavePage(req.Context(), page, member); err != nil {
		app.saveError(rw, err)
		return
	}
	http.Redirect(rw, req, page.Path, http.StatusSeeOther)
}

func (app *App) saveError(rw http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wiki.ErrForbidden):
		http.Error(rw, err.Error(), http.StatusForbidden)
	case errors.Is(err, wiki.ErrPageExists):
		http.Error(rw, err.Error(), http.StatusConflict)
	case errors.Is(err, wiki.ErrEmptyTitle), errors.Is(err, wiki.ErrBadPath):
		http.Error(rw, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, wiki.ErrPageNotFound):
		http.Error(rw, err.Error(), http.StatusNotFound)
	default:
		app.serverError(rw, "failed to save page", err)
	}
}

// PreviewHandler renders a body without saving it and returns the HTML
// fragment for the edit form to display.
func (app *App) PreviewHandler(rw http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		http.Error(rw, "bad form", http.StatusBadRequest)
		return
	}
	html, err := app.Pages.Preview(req.Context(), req.PostFormValue("body"), MemberFromContext(req.Context()))
	if err != nil {
		app.serverError(rw, "failed to render preview", err)
		return
	}
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw.Write([]byte(html))
}

// SpecialPageHandler dispatches to a registered special page.
func (app *App) SpecialPageHandler(rw http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["page"]
	handler, ok := app.SpecialPages.Get(name)
	if !ok {
		http.NotFound(rw, req)
		return
	}
	handler.Handle(rw, req)
}

func (app *App) serverError(rw http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(rw, "Internal server error", http.StatusInternalServerError)
}

func titleFromPath(pagePath string) string {
	base := path.Base(pagePath)
	return strings.ReplaceAll(base, "-", " ")
}
