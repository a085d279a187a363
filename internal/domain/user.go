package domain

import (
	"context"
	"time"

	"github.com/aldermere/storefront/internal/store"
)

// =============================================================================
// USER DOMAIN TYPES
// =============================================================================

// CartItem is one cart line embedded in a user document. A user's cart holds
// at most one item per product; repeated adds merge into the quantity.
type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// User is an account document. Favorites is a set stored as an ordered list;
// set semantics are enforced at the mutation boundary.
type User struct {
	store.Meta

	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"password"`
	Cart         []CartItem `json:"cart"`
	Favorites    []string   `json:"favorites"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Profile returns the user's public projection. The password hash never
// leaves the document store layer through this path.
func (u *User) Profile() *UserProfile {
	return &UserProfile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// HasFavorite reports whether the product is already in the favorites set.
func (u *User) HasFavorite(productID string) bool {
	for _, id := range u.Favorites {
		if id == productID {
			return true
		}
	}
	return false
}

// UserProfile is the public projection of a user.
type UserProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// CartLine is a cart item with its product resolved.
type CartLine struct {
	Product  *Product `json:"product"`
	Quantity int      `json:"quantity"`
}

// AuthResult is what signup and login hand back to the caller.
type AuthResult struct {
	Token string       `json:"token"`
	User  *UserProfile `json:"user"`
}

// =============================================================================
// SERVICE INTERFACES
// =============================================================================

// AccountService provides signup and login.
type AccountService interface {
	// Signup creates an account and returns a bearer token for it.
	// Email addresses are unique across all users.
	Signup(ctx context.Context, name, email, password string) (*AuthResult, error)

	// Login verifies credentials and returns a bearer token.
	Login(ctx context.Context, email, password string) (*AuthResult, error)
}

// CartService provides cart and favorites operations for a user.
type CartService interface {
	// AddToCart merges quantity into an existing line for the product or
	// appends a new one.
	AddToCart(ctx context.Context, userID, productID string, quantity int) ([]CartItem, error)

	// RemoveFromCart drops any line for the product. Removing an absent
	// product is a no-op, not an error.
	RemoveFromCart(ctx context.Context, userID, productID string) ([]CartItem, error)

	// AddToFavorites inserts the product into the favorites set. Idempotent.
	AddToFavorites(ctx context.Context, userID, productID string) ([]string, error)

	// RemoveFromFavorites drops the product from the favorites set. Idempotent.
	RemoveFromFavorites(ctx context.Context, userID, productID string) ([]string, error)

	// GetCart returns the user's cart with each product resolved.
	GetCart(ctx context.Context, userID string) ([]CartLine, error)

	// GetFavorites returns the user's favorite products, resolved.
	GetFavorites(ctx context.Context, userID string) ([]*Product, error)
}

// User-specific errors.
var (
	ErrUserNotFound       = &Error{Code: ENOTFOUND, Message: "User not found"}
	ErrEmailTaken         = &Error{Code: ECONFLICT, Message: "An account with this email already exists"}
	ErrInvalidCredentials = &Error{Code: EUNAUTHORIZED, Message: "Invalid credentials"}
)
