package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/aldermere/storefront/internal/domain"
	"github.com/aldermere/storefront/internal/store"
)

// Carts implements domain.CartService. Cart and favorites mutations follow
// the same compare-and-set cycle as reviews, so two concurrent adds against
// the same user merge instead of overwriting each other.
type Carts struct {
	users    store.Collection[*domain.User]
	products store.Collection[*domain.Product]
}

var _ domain.CartService = (*Carts)(nil)

// NewCarts creates a cart and favorites engine.
func NewCarts(users store.Collection[*domain.User], products store.Collection[*domain.Product]) *Carts {
	return &Carts{users: users, products: products}
}

// AddToCart merges quantity into an existing cart line or appends a new one.
func (s *Carts) AddToCart(ctx context.Context, userID, productID string, quantity int) ([]domain.CartItem, error) {
	if quantity < 1 {
		return nil, domain.Invalid("cart.add", "quantity must be at least 1")
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.Internal(err, "cart.add", "failed to check product")
	}

	updated, err := mutateDocument(ctx, s.users, userID, domain.ErrUserNotFound, func(u *domain.User) error {
		for i := range u.Cart {
			if u.Cart[i].ProductID == productID {
				u.Cart[i].Quantity += quantity
				u.UpdatedAt = time.Now().UTC()
				return nil
			}
		}
		u.Cart = append(u.Cart, domain.CartItem{ProductID: productID, Quantity: quantity})
		u.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cartItems(updated), nil
}

// RemoveFromCart drops any cart line for the product. Removing an absent
// product leaves the cart unchanged and succeeds.
func (s *Carts) RemoveFromCart(ctx context.Context, userID, productID string) ([]domain.CartItem, error) {
	updated, err := mutateDocument(ctx, s.users, userID, domain.ErrUserNotFound, func(u *domain.User) error {
		u.Cart = slices.DeleteFunc(u.Cart, func(item domain.CartItem) bool {
			return item.ProductID == productID
		})
		u.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cartItems(updated), nil
}

// AddToFavorites inserts the product into the favorites set. Adding a product
// already present is a no-op.
func (s *Carts) AddToFavorites(ctx context.Context, userID, productID string) ([]string, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.Internal(err, "favorites.add", "failed to check product")
	}

	updated, err := mutateDocument(ctx, s.users, userID, domain.ErrUserNotFound, func(u *domain.User) error {
		if !u.HasFavorite(productID) {
			u.Favorites = append(u.Favorites, productID)
		}
		u.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return favorites(updated), nil
}

// RemoveFromFavorites drops the product from the favorites set. Idempotent.
func (s *Carts) RemoveFromFavorites(ctx context.Context, userID, productID string) ([]string, error) {
	updated, err := mutateDocument(ctx, s.users, userID, domain.ErrUserNotFound, func(u *domain.User) error {
		u.Favorites = slices.DeleteFunc(u.Favorites, func(id string) bool {
			return id == productID
		})
		u.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return favorites(updated), nil
}

// GetCart returns the user's cart with each referenced product resolved.
// Lines whose product no longer exists are skipped.
func (s *Carts) GetCart(ctx context.Context, userID string) ([]domain.CartLine, error) {
	user, err := s.loadUser(ctx, userID, "cart.get")
	if err != nil {
		return nil, err
	}

	lines := make([]domain.CartLine, 0, len(user.Cart))
	for _, item := range user.Cart {
		product, err := s.products.FindByID(ctx, item.ProductID)
		if errors.Is(err, store.ErrNoDocument) {
			continue
		}
		if err != nil {
			return nil, domain.Internal(err, "cart.get", "failed to resolve product")
		}
		lines = append(lines, domain.CartLine{Product: product, Quantity: item.Quantity})
	}
	return lines, nil
}

// GetFavorites returns the user's favorite products, resolved. Dangling
// references are skipped.
func (s *Carts) GetFavorites(ctx context.Context, userID string) ([]*domain.Product, error) {
	user, err := s.loadUser(ctx, userID, "favorites.get")
	if err != nil {
		return nil, err
	}

	products := make([]*domain.Product, 0, len(user.Favorites))
	for _, id := range user.Favorites {
		product, err := s.products.FindByID(ctx, id)
		if errors.Is(err, store.ErrNoDocument) {
			continue
		}
		if err != nil {
			return nil, domain.Internal(err, "favorites.get", "failed to resolve product")
		}
		products = append(products, product)
	}
	return products, nil
}

func (s *Carts) loadUser(ctx context.Context, userID, op string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrNoDocument) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load user")
	}
	return user, nil
}

func cartItems(u *domain.User) []domain.CartItem {
	if u.Cart == nil {
		return []domain.CartItem{}
	}
	return u.Cart
}

func favorites(u *domain.User) []string {
	if u.Favorites == nil {
		return []string{}
	}
	return u.Favorites
}
