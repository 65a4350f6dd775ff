package api

import (
	"net/http"
	"time"
	"tle_zone_studio/internal/api/handler"
	"tle_zone_studio/internal/app/authoring"
	"tle_zone_studio/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

// tokenFromQuery lets EventSource clients, which cannot set headers, pass the draft token.
func tokenFromQuery(r *http.Request) string {
	return r.URL.Query().Get("token")
}

func NewRouter(
	problemReader handler.ProblemReader,
	renderer handler.DescriptionRenderer,
	sessions *authoring.SessionManager,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger) // Chi's logger
	r.Use(chiMiddleware.Recoverer)

	// Finds the draft token in "Authorization: Bearer T", the jwt cookie or ?token=.
	r.Use(jwtauth.Verify(security.TokenAuth, jwtauth.TokenFromHeader, jwtauth.TokenFromCookie, tokenFromQuery))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	problemHandler := handler.NewProblemHandler(problemReader, renderer)
	authoringHandler := handler.NewAuthoringHandler(sessions)

	// Read routes get a deadline; authoring routes carry a long-lived event stream.
	r.Group(func(timed chi.Router) {
		timed.Use(chiMiddleware.Timeout(60 * time.Second))
		timed.Get("/problems/{serial}", problemHandler.ServePage)
		timed.Get("/api/v1/problems-meta", problemHandler.ServeMeta)
		timed.Route("/api/v1/problems", problemHandler.RegisterRoutes)
	})

	r.Route("/api/v1/authoring/sessions", authoringHandler.RegisterRoutes)

	return r
}
