// Package server assembles the HTTP routes of the food nest API.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ayush/food-nest/backend/internal/auth"
	"github.com/ayush/food-nest/backend/internal/foods"
	"github.com/ayush/food-nest/backend/internal/logger"
	"github.com/ayush/food-nest/backend/internal/middleware"
)

const HealthMessage = "food nest server is cooking"

// Deps are the long-lived collaborators shared by every request.
type Deps struct {
	Listings       foods.ListingStore
	Requests       foods.RequestStore
	Verifier       auth.Verifier
	Logger         logger.Logger
	AllowedOrigins []string
}

func NewRouter(d Deps) http.Handler {
	h := foods.NewHandler(d.Listings, d.Requests, d.Logger)
	authenticate := middleware.Authenticate(d.Verifier, d.Logger)
	owner := middleware.RequireOwner("email")

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(HealthMessage))
	})

	r.Route("/availableFoods", func(r chi.Router) {
		r.Get("/", h.ListAvailable)
		r.Get("/{id}", h.GetListing)
		r.Patch("/{id}", h.UpdateStatus)
	})

	r.Get("/featureFoods", h.Featured)

	r.Route("/requestedFoods", func(r chi.Router) {
		r.Get("/", h.ListRequests)
		r.Post("/", h.CreateRequest)
		r.With(authenticate, owner).Get("/{email}", h.ListRequestsByUser)
	})

	r.Route("/allFoods", func(r chi.Router) {
		r.Get("/{id}", h.GetListing)
		r.Put("/{id}", h.ReplaceListing)
		r.Delete("/{id}", h.DeleteListing)
	})

	r.With(authenticate, owner).Get("/allFoodsByEmail/{email}", h.ListByDonor)
	r.With(authenticate).Post("/foods", h.CreateListing)

	return r
}
