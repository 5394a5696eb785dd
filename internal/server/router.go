package server

import (
	"github.com/gorilla/mux"
)

// Router builds the application's route table. Fixed routes come first; the
// catch-all page handler serves every remaining path, so stored page paths
// double as URLs.
func (app *App) Router() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(app.MemberMiddleware)

	router.HandleFunc("/", app.HomeHandler).Methods("GET")
	router.HandleFunc("/new", app.NewPageHandler).Methods("GET")
	router.HandleFunc("/save", app.SavePageHandler).Methods("POST")
	router.HandleFunc("/preview", app.PreviewHandler).Methods("POST")
	router.HandleFunc("/edit/{path:.*}", app.EditPageHandler).Methods("GET")
	router.HandleFunc("/special/{page}", app.SpecialPageHandler).Methods("GET")
	router.PathPrefix("/").HandlerFunc(app.PageHandler).Methods("GET")

	return router
}
