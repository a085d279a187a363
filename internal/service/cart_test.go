package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldermere/storefront/internal/domain"
	"github.com/aldermere/storefront/internal/service"
	"github.com/aldermere/storefront/internal/store"
)

type cartFixture struct {
	carts    *service.Carts
	catalog  *service.Catalog
	products *store.Memory[*domain.Product]
	user     *domain.User
}

func newCartFixture(t *testing.T) cartFixture {
	t.Helper()
	products := store.NewMemory[*domain.Product]()
	users := store.NewMemory[*domain.User]()
	user := seedUser(t, users, "Ada", "ada@example.com")
	return cartFixture{
		carts:    service.NewCarts(users, products),
		catalog:  service.NewCatalog(products, nil),
		products: products,
		user:     user,
	}
}

func Test_Carts_AddToCart_MergesQuantity(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	product := createProduct(t, f.catalog, domain.CreateProductParams{})

	cart, err := f.carts.AddToCart(ctx, f.user.ID, product.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, 2, cart[0].Quantity)

	cart, err = f.carts.AddToCart(ctx, f.user.ID, product.ID, 3)
	require.NoError(t, err)
	require.Len(t, cart, 1, "repeated adds merge into one line")
	assert.Equal(t, 5, cart[0].Quantity)
	assert.Equal(t, product.ID, cart[0].ProductID)
}

func Test_Carts_AddToCart_SeparateLinesPerProduct(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	first := createProduct(t, f.catalog, domain.CreateProductParams{Name: "Kettle"})
	second := createProduct(t, f.catalog, domain.CreateProductParams{Name: "Mug"})

	_, err := f.carts.AddToCart(ctx, f.user.ID, first.ID, 1)
	require.NoError(t, err)
	cart, err := f.carts.AddToCart(ctx, f.user.ID, second.ID, 4)
	require.NoError(t, err)
	assert.Len(t, cart, 2)
}

func Test_Carts_AddToCart_Validation(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	product := createProduct(t, f.catalog, domain.CreateProductParams{})

	_, err := f.carts.AddToCart(ctx, f.user.ID, product.ID, 0)
	assert.True(t, domain.IsCode(err, domain.EINVALID))

	_, err = f.carts.AddToCart(ctx, f.user.ID, "no-such-product", 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = f.carts.AddToCart(ctx, "no-such-user", product.ID, 1)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func Test_Carts_RemoveFromCart(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	product := createProduct(t, f.catalog, domain.CreateProductParams{})
	_, err := f.carts.AddToCart(ctx, f.user.ID, product.ID, 2)
	require.NoError(t, err)

	cart, err := f.carts.RemoveFromCart(ctx, f.user.ID, product.ID)
	require.NoError(t, err)
	assert.Empty(t, cart)

	// Removing a product that is not in the cart is a no-op.
	cart, err = f.carts.RemoveFromCart(ctx, f.user.ID, product.ID)
	require.NoError(t, err)
	assert.Empty(t, cart)
}

func Test_Carts_GetCart_ResolvesProducts(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	kept := createProduct(t, f.catalog, domain.CreateProductParams{Name: "Kettle", Price: 30})
	doomed := createProduct(t, f.catalog, domain.CreateProductParams{Name: "Mug"})

	_, err := f.carts.AddToCart(ctx, f.user.ID, kept.ID, 2)
	require.NoError(t, err)
	_, err = f.carts.AddToCart(ctx, f.user.ID, doomed.ID, 1)
	require.NoError(t, err)

	require.NoError(t, f.catalog.Delete(ctx, doomed.ID))

	lines, err := f.carts.GetCart(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1, "lines with deleted products are skipped")
	assert.Equal(t, "Kettle", lines[0].Product.Name)
	assert.Equal(t, 2, lines[0].Quantity)
}

func Test_Carts_GetCart_EmptyForNewUser(t *testing.T) {
	f := newCartFixture(t)

	lines, err := f.carts.GetCart(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.NotNil(t, lines)
	assert.Empty(t, lines)
}

func Test_Carts_AddToFavorites_Idempotent(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	product := createProduct(t, f.catalog, domain.CreateProductParams{})

	favs, err := f.carts.AddToFavorites(ctx, f.user.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{product.ID}, favs)

	favs, err = f.carts.AddToFavorites(ctx, f.user.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{product.ID}, favs, "adding twice keeps a single entry")
}

func Test_Carts_AddToFavorites_ProductNotFound(t *testing.T) {
	f := newCartFixture(t)
	_, err := f.carts.AddToFavorites(context.Background(), f.user.ID, "missing")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func Test_Carts_RemoveFromFavorites(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	product := createProduct(t, f.catalog, domain.CreateProductParams{})
	_, err := f.carts.AddToFavorites(ctx, f.user.ID, product.ID)
	require.NoError(t, err)

	favs, err := f.carts.RemoveFromFavorites(ctx, f.user.ID, product.ID)
	require.NoError(t, err)
	assert.Empty(t, favs)

	// Removing again is a no-op.
	favs, err = f.carts.RemoveFromFavorites(ctx, f.user.ID, product.ID)
	require.NoError(t, err)
	assert.Empty(t, favs)
}

func Test_Carts_GetFavorites_ResolvesProducts(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	kept := createProduct(t, f.catalog, domain.CreateProductParams{Name: "Kettle"})
	doomed := createProduct(t, f.catalog, domain.CreateProductParams{Name: "Mug"})

	_, err := f.carts.AddToFavorites(ctx, f.user.ID, kept.ID)
	require.NoError(t, err)
	_, err = f.carts.AddToFavorites(ctx, f.user.ID, doomed.ID)
	require.NoError(t, err)

	require.NoError(t, f.catalog.Delete(ctx, doomed.ID))

	products, err := f.carts.GetFavorites(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Kettle", products[0].Name)
}

func Test_Carts_UnknownUser(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	_, err := f.carts.GetCart(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = f.carts.GetFavorites(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
