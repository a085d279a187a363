package handler

import (
	"net/http"
	"strconv"

	"github.com/aldermere/storefront/internal/domain"
	"github.com/aldermere/storefront/internal/middleware"
)

// ProductHandler exposes the catalog and review engines.
type ProductHandler struct {
	catalog domain.CatalogService
	reviews domain.ReviewService
}

// NewProductHandler creates a product handler.
func NewProductHandler(catalog domain.CatalogService, reviews domain.ReviewService) *ProductHandler {
	return &ProductHandler{catalog: catalog, reviews: reviews}
}

type createProductRequest struct {
	Name             string            `json:"name" validate:"required"`
	Description      string            `json:"description" validate:"required"`
	Price            float64           `json:"price" validate:"min=0"`
	Category         string            `json:"category" validate:"required"`
	Brand            string            `json:"brand" validate:"required"`
	ImageURL         string            `json:"imageUrl" validate:"required"`
	AdditionalImages []string          `json:"additionalImages"`
	Discount         float64           `json:"discount" validate:"min=0"`
	Stock            int               `json:"stock" validate:"min=0"`
	Specifications   map[string]string `json:"specifications"`
	IsAvailable      *bool             `json:"isAvailable"`
	Tags             []string          `json:"tags"`
}

// Create handles POST /api/v1/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	product, err := h.catalog.Create(r.Context(), domain.CreateProductParams{
		Name:             req.Name,
		Description:      req.Description,
		Price:            req.Price,
		Category:         req.Category,
		Brand:            req.Brand,
		ImageURL:         req.ImageURL,
		AdditionalImages: req.AdditionalImages,
		Discount:         req.Discount,
		Stock:            req.Stock,
		Specifications:   req.Specifications,
		IsAvailable:      req.IsAvailable,
		Tags:             req.Tags,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

// List handles GET /api/v1/products
//
// Non-numeric page and limit values fall back to their defaults; malformed
// price bounds are rejected.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := domain.ListProductsParams{
		Page:     intParam(q.Get("page")),
		Limit:    intParam(q.Get("limit")),
		Category: q.Get("category"),
		Brand:    q.Get("brand"),
		SortBy:   q.Get("sortBy"),
		Order:    q.Get("sortOrder"),
	}

	for name, dst := range map[string]**float64{
		"minPrice": &params.MinPrice,
		"maxPrice": &params.MaxPrice,
	} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, r, domain.Invalid("catalog.list", name+" must be a number"))
			return
		}
		*dst = &value
	}

	page, err := h.catalog.List(r.Context(), params)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// Search handles GET /api/v1/products/search?q=term
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"products": products})
}

// Get handles GET /api/v1/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

type updateProductRequest struct {
	Name             *string           `json:"name"`
	Description      *string           `json:"description"`
	Price            *float64          `json:"price"`
	Category         *string           `json:"category"`
	Brand            *string           `json:"brand"`
	ImageURL         *string           `json:"imageUrl"`
	AdditionalImages []string          `json:"additionalImages"`
	Discount         *float64          `json:"discount"`
	Stock            *int              `json:"stock"`
	Specifications   map[string]string `json:"specifications"`
	IsAvailable      *bool             `json:"isAvailable"`
	Tags             []string          `json:"tags"`
}

// Update handles PATCH /api/v1/products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	product, err := h.catalog.Update(r.Context(), r.PathValue("id"), domain.UpdateProductParams{
		Name:             req.Name,
		Description:      req.Description,
		Price:            req.Price,
		Category:         req.Category,
		Brand:            req.Brand,
		ImageURL:         req.ImageURL,
		AdditionalImages: req.AdditionalImages,
		Discount:         req.Discount,
		Stock:            req.Stock,
		Specifications:   req.Specifications,
		IsAvailable:      req.IsAvailable,
		Tags:             req.Tags,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /api/v1/products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type adjustStockRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// AdjustStock handles POST /api/v1/products/{id}/stock
func (h *ProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req adjustStockRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	product, err := h.catalog.AdjustStock(r.Context(), r.PathValue("id"), *req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

type addReviewRequest struct {
	Rating  float64 `json:"rating" validate:"required,min=1,max=5"`
	Comment string  `json:"comment"`
}

// AddReview handles POST /api/v1/products/{id}/reviews
// The reviewer is the authenticated principal.
func (h *ProductHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	var req addReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	userID := middleware.GetPrincipalID(r.Context())
	product, err := h.reviews.Add(r.Context(), r.PathValue("id"), userID, req.Rating, req.Comment)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

// RemoveReview handles DELETE /api/v1/products/{id}/reviews
// Removes the authenticated principal's own review.
func (h *ProductHandler) RemoveReview(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetPrincipalID(r.Context())
	product, err := h.reviews.Remove(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// ListReviews handles GET /api/v1/products/{id}/reviews
func (h *ProductHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	details, err := h.reviews.List(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"reviews": details})
}

// intParam parses a positive integer query value, returning 0 (meaning
// "use the default") for absent or non-numeric input.
func intParam(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
