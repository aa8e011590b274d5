package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/165cm/fxarchive/internal/rate/handler"
)

func NewRouter(rateHandler *handler.Handler) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.Heartbeat("/healthz"))

	router.Post("/api/v1/rates/update", rateHandler.TriggerUpdate)
	router.Get("/api/v1/rates/{date:[0-9]{4}-[0-9]{2}-[0-9]{2}}", rateHandler.GetRate)
	router.Get("/api/v1/quarters/{year:[0-9]{4}}/{quarter:[1-4]}/verify", rateHandler.VerifyQuarter)
	return router
}
