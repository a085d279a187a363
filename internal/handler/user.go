package handler

import (
	"net/http"

	"github.com/aldermere/storefront/internal/domain"
	"github.com/aldermere/storefront/internal/middleware"
)

// UserHandler exposes the cart and favorites engine for the authenticated
// user.
type UserHandler struct {
	carts domain.CartService
}

// NewUserHandler creates a user handler.
func NewUserHandler(carts domain.CartService) *UserHandler {
	return &UserHandler{carts: carts}
}

// GetCart handles GET /api/v1/me/cart
func (h *UserHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	lines, err := h.carts.GetCart(r.Context(), middleware.GetPrincipalID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"cart": lines})
}

type addToCartRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  *int   `json:"quantity"`
}

// AddToCart handles POST /api/v1/me/cart
// An absent quantity defaults to 1; an explicit quantity below 1 is rejected
// by the engine.
func (h *UserHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	cart, err := h.carts.AddToCart(r.Context(), middleware.GetPrincipalID(r.Context()), req.ProductID, quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"cart": cart})
}

// RemoveFromCart handles DELETE /api/v1/me/cart/{productId}
func (h *UserHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.RemoveFromCart(r.Context(), middleware.GetPrincipalID(r.Context()), r.PathValue("productId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"cart": cart})
}

// GetFavorites handles GET /api/v1/me/favorites
func (h *UserHandler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	products, err := h.carts.GetFavorites(r.Context(), middleware.GetPrincipalID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"favorites": products})
}

// AddToFavorites handles POST /api/v1/me/favorites/{productId}
func (h *UserHandler) AddToFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.carts.AddToFavorites(r.Context(), middleware.GetPrincipalID(r.Context()), r.PathValue("productId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"favorites": favorites})
}

// RemoveFromFavorites handles DELETE /api/v1/me/favorites/{productId}
func (h *UserHandler) RemoveFromFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.carts.RemoveFromFavorites(r.Context(), middleware.GetPrincipalID(r.Context()), r.PathValue("productId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"favorites": favorites})
}
