package server

import (
	"embed"
	"log/slog"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mveld/tanglewiki/internal/config"
	"github.com/mveld/tanglewiki/internal/storage"
	"github.com/mveld/tanglewiki/special"
	"github.com/mveld/tanglewiki/templater"
	"github.com/mveld/tanglewiki/wiki"
	"github.com/mveld/tanglewiki/wiki/service"
	"github.com/mveld/tanglewiki/wikitext"
)

//go:embed templates
var templateFS embed.FS

// Setup initializes the application and returns the App instance.
func Setup() *App {
	conf := config.SetupConfig()

	t := templater.New()
	if err := t.Load(templateFS, "templates/layouts/*.html", "templates/*.html"); err != nil {
		slog.Error("failed to load templates", "error", err)
		os.Exit(1)
	}

	db, err := sqlx.Open(storage.DriverName, conf.DatabaseFile)
	check(err)
	check(storage.RunMigrations(db))

	store, err := storage.Init(db)
	check(err)

	app := NewApp(conf, db, store, t)
	return app
}

// Store is the full persistence surface the app needs: page persistence
// plus the page graph the parser queries.
type Store interface {
	service.Store
	wikitext.Graph
}

// NewApp wires the services over an initialized store. Split from Setup so
// tests can assemble an App around an in-memory database.
func NewApp(conf *wiki.Config, db *sqlx.DB, store Store, t *templater.Templater) *App {
	pipeline := wikitext.NewPipeline(store, wikitext.Options{
		LinkConcurrency: conf.LinkConcurrency,
		TemplateDepth:   conf.TemplateMaxDepth,
		Timeout:         time.Duration(conf.RenderTimeoutSeconds) * time.Second,
		TOC:             true,
	})

	rendering := service.NewRenderingService(pipeline, nil)
	pages := service.NewPageService(store, rendering)

	specials := special.NewRegistry()
	specials.Register("requested", special.NewRequestedPagesPage(pages, t))

	return &App{
		Templater:    t,
		Pages:        pages,
		Rendering:    rendering,
		SpecialPages: specials,
		Config:       conf,
		DB:           db,
	}
}

func check(err error) {
	if err != nil {
		slog.Error("setup failed", "error", err)
		os.Exit(1)
	}
}
