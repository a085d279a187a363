package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldermere/storefront/internal/domain"
	"github.com/aldermere/storefront/internal/service"
	"github.com/aldermere/storefront/internal/store"
)

// productCollectionMock implements store.Collection[*domain.Product] for
// driving the revision-conflict paths deterministically.
type productCollectionMock struct {
	FindFunc       func(ctx context.Context, q store.Query) ([]*domain.Product, error)
	CountFunc      func(ctx context.Context, f store.Filter) (int64, error)
	FindByIDFunc   func(ctx context.Context, id string) (*domain.Product, error)
	InsertFunc     func(ctx context.Context, doc *domain.Product) (*domain.Product, error)
	UpdateByIDFunc func(ctx context.Context, doc *domain.Product) (*domain.Product, error)
	DeleteByIDFunc func(ctx context.Context, id string) (bool, error)
}

func (m *productCollectionMock) Find(ctx context.Context, q store.Query) ([]*domain.Product, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, q)
	}
	return nil, nil
}

func (m *productCollectionMock) Count(ctx context.Context, f store.Filter) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, f)
	}
	return 0, nil
}

func (m *productCollectionMock) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, store.ErrNoDocument
}

func (m *productCollectionMock) Insert(ctx context.Context, doc *domain.Product) (*domain.Product, error) {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, doc)
	}
	return doc, nil
}

func (m *productCollectionMock) UpdateByID(ctx context.Context, doc *domain.Product) (*domain.Product, error) {
	if m.UpdateByIDFunc != nil {
		return m.UpdateByIDFunc(ctx, doc)
	}
	return nil, store.ErrNoDocument
}

func (m *productCollectionMock) DeleteByID(ctx context.Context, id string) (bool, error) {
	if m.DeleteByIDFunc != nil {
		return m.DeleteByIDFunc(ctx, id)
	}
	return false, nil
}

// freshProduct returns a new copy at the given revision, the way a store
// hands out a decoded document on every load.
func freshProduct(id string, rev int64) *domain.Product {
	p := &domain.Product{
		Name:        "Kettle",
		Description: "Pours water",
		Category:    "kitchen",
		Brand:       "Acme",
		ImageURL:    "https://example.com/kettle.jpg",
		Stock:       5,
		Reviews:     []domain.Review{},
	}
	p.ID = id
	p.Rev = rev
	return p
}

func Test_Reviews_Add_ConcurrentWritersLoseNoReviews(t *testing.T) {
	reviews, catalog, _ := newReviews(t)
	ctx := context.Background()

	product := createProduct(t, catalog, domain.CreateProductParams{})

	const writers = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded []string
	)
	for i := 0; i < writers; i++ {
		userID := fmt.Sprintf("user-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := reviews.Add(ctx, product.ID, userID, 4, "raced"); err == nil {
				mu.Lock()
				succeeded = append(succeeded, userID)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.NotEmpty(t, succeeded, "at least the first compare-and-set winner must land")

	// Every add that reported success is present, the aggregates agree with
	// the review list, and nothing was overwritten by a concurrent writer.
	got, err := catalog.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.Len(t, got.Reviews, len(succeeded))
	assert.Equal(t, len(got.Reviews), got.ReviewsCount)
	for _, userID := range succeeded {
		assert.True(t, got.HasReviewBy(userID), "review by %s was lost", userID)
	}
}

func Test_Reviews_Add_RetriesOnRevisionConflict(t *testing.T) {
	users := store.NewMemory[*domain.User]()

	// First compare-and-set loses to a concurrent writer, the retry wins.
	var loads, updates int
	products := &productCollectionMock{
		FindByIDFunc: func(_ context.Context, id string) (*domain.Product, error) {
			loads++
			return freshProduct(id, int64(loads)), nil
		},
		UpdateByIDFunc: func(_ context.Context, doc *domain.Product) (*domain.Product, error) {
			updates++
			if updates == 1 {
				return nil, store.ErrRevMismatch
			}
			doc.Rev++
			return doc, nil
		},
	}

	reviews := service.NewReviews(products, users, nil)
	updated, err := reviews.Add(context.Background(), "prod-1", "user-1", 5, "persistent")
	require.NoError(t, err)

	assert.Equal(t, 2, loads, "conflict forces a reload")
	assert.Equal(t, 2, updates)
	require.Len(t, updated.Reviews, 1)
	assert.Equal(t, "user-1", updated.Reviews[0].UserID)
	assert.Equal(t, 1, updated.ReviewsCount)
}

func Test_Reviews_Add_GivesUpUnderPersistentContention(t *testing.T) {
	users := store.NewMemory[*domain.User]()

	var loads int
	products := &productCollectionMock{
		FindByIDFunc: func(_ context.Context, id string) (*domain.Product, error) {
			loads++
			return freshProduct(id, int64(loads)), nil
		},
		UpdateByIDFunc: func(_ context.Context, _ *domain.Product) (*domain.Product, error) {
			return nil, store.ErrRevMismatch
		},
	}

	reviews := service.NewReviews(products, users, nil)
	_, err := reviews.Add(context.Background(), "prod-1", "user-1", 5, "doomed")

	assert.True(t, domain.IsCode(err, domain.EINTERNAL), "got %v", err)
	assert.Equal(t, 3, loads, "retries are bounded")
}
