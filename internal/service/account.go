package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aldermere/storefront/internal/auth"
	"github.com/aldermere/storefront/internal/domain"
	"github.com/aldermere/storefront/internal/store"
)

// Accounts implements domain.AccountService: signup and login against the
// users collection, handing out bearer tokens from the issuer.
type Accounts struct {
	users  store.Collection[*domain.User]
	tokens *auth.TokenIssuer
}

var _ domain.AccountService = (*Accounts)(nil)

// NewAccounts creates an account engine.
func NewAccounts(users store.Collection[*domain.User], tokens *auth.TokenIssuer) *Accounts {
	return &Accounts{users: users, tokens: tokens}
}

// Signup creates an account with a unique email and returns a token for it.
func (s *Accounts) Signup(ctx context.Context, name, email, password string) (*domain.AuthResult, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	switch {
	case name == "":
		return nil, domain.Invalid("account.signup", "name is required")
	case email == "" || !strings.Contains(email, "@"):
		return nil, domain.Invalid("account.signup", "a valid email is required")
	}

	existing, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, domain.Internal(err, "account.signup", "failed to check existing user")
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, domain.Invalid("account.signup", err.Error())
		}
		return nil, domain.Internal(err, "account.signup", "failed to hash password")
	}

	now := time.Now().UTC()
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Cart:         []domain.CartItem{},
		Favorites:    []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.users.Insert(ctx, user)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, domain.ErrEmailTaken
	}
	if err != nil {
		return nil, domain.Internal(err, "account.signup", "failed to create user")
	}

	return s.authResult(created)
}

// Login verifies credentials and returns a token. Unknown emails and wrong
// passwords fail identically.
func (s *Accounts) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, domain.Internal(err, "account.login", "failed to look up user")
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}

	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.Internal(err, "account.login", "failed to verify password")
	}

	return s.authResult(user)
}

func (s *Accounts) findByEmail(ctx context.Context, email string) (*domain.User, error) {
	users, err := s.users.Find(ctx, store.Query{
		Filter: store.Filter{}.Where("email", store.OpEq, email),
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return users[0], nil
}

func (s *Accounts) authResult(user *domain.User) (*domain.AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, domain.Internal(err, "account.token", "failed to issue token")
	}
	return &domain.AuthResult{Token: token, User: user.Profile()}, nil
}
