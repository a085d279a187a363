// Package routes wires handlers onto the router.
package routes

import (
	"net/http"

	"github.com/aldermere/storefront/internal/auth"
	"github.com/aldermere/storefront/internal/handler"
	"github.com/aldermere/storefront/internal/middleware"
	"github.com/aldermere/storefront/internal/router"
)

// APIDeps carries the handlers and collaborators the API routes need.
type APIDeps struct {
	Auth     *handler.AuthHandler
	Products *handler.ProductHandler
	Users    *handler.UserHandler
	Tokens   *auth.TokenIssuer
	Metrics  *middleware.Metrics
}

// RegisterAPIRoutes registers the JSON API. Reads are public; everything that
// mutates, plus the per-user cart and favorites surface, requires a bearer
// token.
func RegisterAPIRoutes(r *router.Router, deps APIDeps) {
	// Operational endpoints
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle(http.MethodGet, "/metrics", deps.Metrics.Handler())

	// Authentication
	r.Post("/api/v1/auth/signup", deps.Auth.Signup)
	r.Post("/api/v1/auth/login", deps.Auth.Login)

	// Public catalog reads
	r.Get("/api/v1/products", deps.Products.List)
	r.Get("/api/v1/products/search", deps.Products.Search)
	r.Get("/api/v1/products/{id}", deps.Products.Get)
	r.Get("/api/v1/products/{id}/reviews", deps.Products.ListReviews)

	// Authenticated surface
	authed := r.Group(middleware.RequireAuth(deps.Tokens))

	authed.Post("/api/v1/products", deps.Products.Create)
	authed.Patch("/api/v1/products/{id}", deps.Products.Update)
	authed.Delete("/api/v1/products/{id}", deps.Products.Delete)
	authed.Post("/api/v1/products/{id}/stock", deps.Products.AdjustStock)

	authed.Post("/api/v1/products/{id}/reviews", deps.Products.AddReview)
	authed.Delete("/api/v1/products/{id}/reviews", deps.Products.RemoveReview)

	authed.Get("/api/v1/me/cart", deps.Users.GetCart)
	authed.Post("/api/v1/me/cart", deps.Users.AddToCart)
	authed.Delete("/api/v1/me/cart/{productId}", deps.Users.RemoveFromCart)
	authed.Get("/api/v1/me/favorites", deps.Users.GetFavorites)
	authed.Post("/api/v1/me/favorites/{productId}", deps.Users.AddToFavorites)
	authed.Delete("/api/v1/me/favorites/{productId}", deps.Users.RemoveFromFavorites)
}
