// Package templater loads and renders the HTML page templates. Each main
// template is parsed together with the shared layout so a single name
// renders a full page.
package templater

import (
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"

	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Templater encapsulates the template map to prevent direct access. See
// RenderTemplate.
type Templater struct {
	templates map[string]*template.Template
	funcs     template.FuncMap
}

func New() *Templater {
	return &Templater{}
}

// Load parses templates from fsys. layoutGlob names the shared layout files
// and mainGlob the per-page templates; every main template is parsed
// alongside the layouts and registered under its base name.
func (t *Templater) Load(fsys fs.FS, layoutGlob, mainGlob string) error {
	t.templates = make(map[string]*template.Template)

	titler := cases.Title(language.AmericanEnglish)
	t.funcs = template.FuncMap{
		"title":       titler.String,
		"pathEscape":  url.PathEscape,
		"queryEscape": url.QueryEscape,
		"statusText":  http.StatusText,
	}

	mains, err := fs.Glob(fsys, mainGlob)
	if err != nil {
		return errors.Wrap(err, "failed to glob templates")
	}
	if len(mains) == 0 {
		return errors.Errorf("no templates match %q", mainGlob)
	}

	for _, main := range mains {
		name := path.Base(main)
		tmpl, err := template.New(name).Funcs(t.funcs).ParseFS(fsys, layoutGlob, main)
		if err != nil {
			return errors.Wrapf(err, "failed to parse template %s", name)
		}
		t.templates[name] = tmpl
	}
	return nil
}

// RenderTemplate renders the named template into w.
func (t *Templater) RenderTemplate(w io.Writer, name string, data map[string]interface{}) error {
	tmpl, ok := t.templates[name]
	if !ok {
		return errors.Errorf("template %s does not exist", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}
