package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/aldermere/storefront/internal/cache"
	"github.com/aldermere/storefront/internal/domain"
	"github.com/aldermere/storefront/internal/store"
)

// Reviews implements domain.ReviewService. Review mutations and the derived
// aggregate recompute persist in a single document write, so callers never
// observe a review list out of sync with rating/reviewsCount.
type Reviews struct {
	products store.Collection[*domain.Product]
	users    store.Collection[*domain.User]
	cache    *cache.Products
}

var _ domain.ReviewService = (*Reviews)(nil)

// NewReviews creates a review engine. cache may be nil.
func NewReviews(
	products store.Collection[*domain.Product],
	users store.Collection[*domain.User],
	cache *cache.Products,
) *Reviews {
	return &Reviews{products: products, users: users, cache: cache}
}

// Add appends a review for the acting user and recomputes the aggregates.
func (s *Reviews) Add(ctx context.Context, productID, userID string, rating float64, comment string) (*domain.Product, error) {
	updated, err := mutateDocument(ctx, s.products, productID, domain.ErrProductNotFound, func(p *domain.Product) error {
		if p.HasReviewBy(userID) {
			return domain.ErrDuplicateReview
		}
		now := time.Now().UTC()
		p.Reviews = append(p.Reviews, domain.Review{
			UserID:    userID,
			Rating:    rating,
			Comment:   comment,
			CreatedAt: now,
		})
		p.RecomputeRating()
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, productID)
	return updated, nil
}

// Remove deletes the acting user's review and recomputes the aggregates.
func (s *Reviews) Remove(ctx context.Context, productID, userID string) (*domain.Product, error) {
	updated, err := mutateDocument(ctx, s.products, productID, domain.ErrProductNotFound, func(p *domain.Product) error {
		idx := slices.IndexFunc(p.Reviews, func(r domain.Review) bool {
			return r.UserID == userID
		})
		if idx < 0 {
			return domain.ErrReviewNotFound
		}
		p.Reviews = slices.Delete(p.Reviews, idx, idx+1)
		p.RecomputeRating()
		p.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, productID)
	return updated, nil
}

// List returns the product's reviews with reviewers resolved to their public
// profiles. Reviews whose user no longer resolves keep a nil reviewer.
func (s *Reviews) List(ctx context.Context, productID string) ([]domain.ReviewDetail, error) {
	product, err := s.products.FindByID(ctx, productID)
	if errors.Is(err, store.ErrNoDocument) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, "review.list", "failed to get product")
	}

	details := make([]domain.ReviewDetail, 0, len(product.Reviews))
	for _, review := range product.Reviews {
		detail := domain.ReviewDetail{Review: review}

		user, err := s.users.FindByID(ctx, review.UserID)
		if err == nil {
			detail.Reviewer = user.Profile()
		} else if !errors.Is(err, store.ErrNoDocument) {
			return nil, domain.Internal(err, "review.list", "failed to resolve reviewer")
		}

		details = append(details, detail)
	}
	return details, nil
}
