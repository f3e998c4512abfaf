package api

import (
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"

	"github.com/JinFuuMugen/coinshop/internal/handlers"
	"github.com/JinFuuMugen/coinshop/internal/logger"
	customMiddleware "github.com/JinFuuMugen/coinshop/internal/middleware"
	"github.com/JinFuuMugen/coinshop/internal/session"
)

func InitRouter(sessions *session.Manager, jwtSecret []byte) *chi.Mux {
	rout := chi.NewRouter()

	rout.Use(logger.LoggerMiddleware)
	rout.Use(middleware.Recoverer)
	rout.Use(middleware.StripSlashes)
	rout.Use(customMiddleware.GzipMiddleware)

	sessionHandler := &handlers.SessionHandler{
		Sessions:  sessions,
		JWTSecret: jwtSecret,
	}

	rout.Route("/api", func(r chi.Router) {
		r.Use(sessionHandler.SessionMiddleware)

		r.Get("/catalog", handlers.GetCatalog)
		r.Get("/state", handlers.GetState)

		r.Post("/account/search", handlers.SearchAccount)
		r.Post("/account/submit", handlers.SubmitAccount)

		r.Post("/packs/select", handlers.SelectPack)

		r.Post("/custom/keys", handlers.PressKey)
		r.Post("/custom/commit", handlers.CommitCustom)
		r.Post("/custom/close", handlers.CloseCustom)

		r.Post("/order/buy", handlers.Buy)
		r.Post("/order/back", handlers.BackFromReview)
		r.Get("/order/methods", handlers.GetPaymentMethods)
		r.Post("/order/method", handlers.SelectPaymentMethod)
		r.Post("/order/pay", handlers.Pay)

		r.Post("/success/back", handlers.BackFromSuccess)
	})

	return rout
}
