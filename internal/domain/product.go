package domain

import (
	"context"
	"time"

	"github.com/aldermere/storefront/internal/store"
)

// =============================================================================
// PRODUCT DOMAIN TYPES
// =============================================================================

// Review is a single user review embedded in a product document. Reviews are
// immutable once written; they are only ever appended or removed wholesale.
type Review struct {
	UserID    string    `json:"userId"`
	Rating    float64   `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// Product is a catalog entry. Rating and ReviewsCount are derived from the
// embedded review list and are recomputed from scratch on every review
// mutation; they are never adjusted incrementally.
type Product struct {
	store.Meta

	Name             string            `json:"name"`
	Description      string            `json:"description"`
	Price            float64           `json:"price"`
	Category         string            `json:"category"`
	Brand            string            `json:"brand"`
	ImageURL         string            `json:"imageUrl"`
	AdditionalImages []string          `json:"additionalImages"`
	Discount         float64           `json:"discount"`
	Stock            int               `json:"stock"`
	Specifications   map[string]string `json:"specifications"`
	IsAvailable      bool              `json:"isAvailable"`
	Tags             []string          `json:"tags"`
	Rating           float64           `json:"rating"`
	ReviewsCount     int               `json:"reviewsCount"`
	Reviews          []Review          `json:"reviews"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// HasReviewBy reports whether the user already reviewed this product.
func (p *Product) HasReviewBy(userID string) bool {
	for _, r := range p.Reviews {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// RecomputeRating rebuilds the derived aggregate fields from the review list.
// Must be called after every structural change to Reviews.
func (p *Product) RecomputeRating() {
	p.ReviewsCount = len(p.Reviews)
	if len(p.Reviews) == 0 {
		p.Rating = 0
		return
	}
	var sum float64
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	p.Rating = sum / float64(len(p.Reviews))
}

// =============================================================================
// SERVICE INTERFACES
// =============================================================================

// CatalogService provides business logic for product catalog operations.
type CatalogService interface {
	// Create validates and persists a new product.
	Create(ctx context.Context, params CreateProductParams) (*Product, error)

	// List returns one page of products matching the filter, with the total
	// match count and number of pages.
	List(ctx context.Context, params ListProductsParams) (*ProductPage, error)

	// Get retrieves a product by id.
	Get(ctx context.Context, id string) (*Product, error)

	// Update merges the provided fields onto an existing product.
	Update(ctx context.Context, id string, params UpdateProductParams) (*Product, error)

	// Delete removes a product by id.
	Delete(ctx context.Context, id string) error

	// Search returns all products whose name, description, brand or any tag
	// contains the term, case-insensitively. No relevance ranking.
	Search(ctx context.Context, term string) ([]*Product, error)

	// AdjustStock atomically adds delta (possibly negative) to the product's
	// stock. Stock is not clamped at zero.
	AdjustStock(ctx context.Context, id string, delta int) (*Product, error)
}

// ReviewService provides business logic for the review subsystem.
type ReviewService interface {
	// Add appends a review and recomputes the product's aggregate fields.
	// A user may review a given product at most once.
	Add(ctx context.Context, productID, userID string, rating float64, comment string) (*Product, error)

	// Remove deletes the user's review and recomputes the aggregate fields.
	Remove(ctx context.Context, productID, userID string) (*Product, error)

	// List returns the product's reviews with each reviewer resolved to a
	// public profile.
	List(ctx context.Context, productID string) ([]ReviewDetail, error)
}

// ReviewDetail pairs a review with its reviewer's public profile.
// Reviewer is nil when the user no longer resolves.
type ReviewDetail struct {
	Review   Review       `json:"review"`
	Reviewer *UserProfile `json:"reviewer,omitempty"`
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products []*Product `json:"products"`
	Total    int64      `json:"total"`
	Pages    int        `json:"pages"`
}

// =============================================================================
// PARAMETER TYPES
// =============================================================================

// CreateProductParams contains parameters for creating a product.
type CreateProductParams struct {
	Name             string
	Description      string
	Price            float64
	Category         string
	Brand            string
	ImageURL         string
	AdditionalImages []string
	Discount         float64
	Stock            int
	Specifications   map[string]string
	IsAvailable      *bool
	Tags             []string
}

// UpdateProductParams contains parameters for updating a product.
// Nil fields are left unchanged. Derived fields cannot be set here.
type UpdateProductParams struct {
	Name             *string
	Description      *string
	Price            *float64
	Category         *string
	Brand            *string
	ImageURL         *string
	AdditionalImages []string
	Discount         *float64
	Stock            *int
	Specifications   map[string]string
	IsAvailable      *bool
	Tags             []string
}

// ListProductsParams contains the listing filter, page and sort. Zero values
// mean "not set"; page and limit are clamped by the store layer.
type ListProductsParams struct {
	Page     int
	Limit    int
	Category string
	Brand    string
	MinPrice *float64
	MaxPrice *float64
	SortBy   string
	Order    string
}

// Product-specific errors.
var (
	ErrProductNotFound = &Error{Code: ENOTFOUND, Message: "Product not found"}
	ErrReviewNotFound  = &Error{Code: ENOTFOUND, Message: "Review not found"}
	ErrDuplicateReview = &Error{Code: ECONFLICT, Message: "You have already added a review for this product"}
)
