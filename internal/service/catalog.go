package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aldermere/storefront/internal/cache"
	"github.com/aldermere/storefront/internal/domain"
	"github.com/aldermere/storefront/internal/store"
)

// Fields the listing endpoint may sort by. Anything else falls back to
// createdAt.
var allowedSortFields = map[string]bool{
	"createdAt":    true,
	"name":         true,
	"price":        true,
	"rating":       true,
	"reviewsCount": true,
	"stock":        true,
}

// Catalog implements domain.CatalogService over the products collection,
// with an optional read-through cache on Get.
type Catalog struct {
	products store.Collection[*domain.Product]
	cache    *cache.Products
}

var _ domain.CatalogService = (*Catalog)(nil)

// NewCatalog creates a catalog engine. cache may be nil.
func NewCatalog(products store.Collection[*domain.Product], cache *cache.Products) *Catalog {
	return &Catalog{products: products, cache: cache}
}

// Create validates and persists a new product.
func (s *Catalog) Create(ctx context.Context, params domain.CreateProductParams) (*domain.Product, error) {
	if err := validateCreate(params); err != nil {
		return nil, err
	}

	available := true
	if params.IsAvailable != nil {
		available = *params.IsAvailable
	}

	now := time.Now().UTC()
	product := &domain.Product{
		Name:             strings.TrimSpace(params.Name),
		Description:      params.Description,
		Price:            params.Price,
		Category:         params.Category,
		Brand:            params.Brand,
		ImageURL:         params.ImageURL,
		AdditionalImages: params.AdditionalImages,
		Discount:         params.Discount,
		Stock:            params.Stock,
		Specifications:   params.Specifications,
		IsAvailable:      available,
		Tags:             params.Tags,
		Reviews:          []domain.Review{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	created, err := s.products.Insert(ctx, product)
	if err != nil {
		return nil, domain.Internal(err, "catalog.create", "failed to create product")
	}
	return created, nil
}

// List returns one page of products matching the filter plus the total match
// count. The page fetch and the count run concurrently.
func (s *Catalog) List(ctx context.Context, params domain.ListProductsParams) (*domain.ProductPage, error) {
	filter := listFilter(params)
	page := store.NewPage(params.Page, params.Limit)

	sortBy := params.SortBy
	if !allowedSortFields[sortBy] {
		sortBy = "createdAt"
	}
	order := store.SortDesc
	if params.Order == "asc" {
		order = store.SortAsc
	}
	query := store.BuildQuery(filter, page, sortBy, order)

	var (
		products []*domain.Product
		total    int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.products.Find(gctx, query)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.products.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, domain.Internal(err, "catalog.list", "failed to list products")
	}

	if products == nil {
		products = []*domain.Product{}
	}
	return &domain.ProductPage{
		Products: products,
		Total:    total,
		Pages:    store.Pages(total, page.Size),
	}, nil
}

// Get retrieves a product by id, consulting the cache first.
func (s *Catalog) Get(ctx context.Context, id string) (*domain.Product, error) {
	if p, ok := s.cache.Get(ctx, id); ok {
		return p, nil
	}

	product, err := s.products.FindByID(ctx, id)
	if errors.Is(err, store.ErrNoDocument) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, "catalog.get", "failed to get product")
	}

	s.cache.Set(ctx, product)
	return product, nil
}

// Update merges the provided fields onto an existing product.
func (s *Catalog) Update(ctx context.Context, id string, params domain.UpdateProductParams) (*domain.Product, error) {
	updated, err := mutateDocument(ctx, s.products, id, domain.ErrProductNotFound, func(p *domain.Product) error {
		return mergeUpdate(p, params)
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, id)
	return updated, nil
}

// Delete removes a product by id.
func (s *Catalog) Delete(ctx context.Context, id string) error {
	deleted, err := s.products.DeleteByID(ctx, id)
	if err != nil {
		return domain.Internal(err, "catalog.delete", "failed to delete product")
	}
	if !deleted {
		return domain.ErrProductNotFound
	}
	s.cache.Invalidate(ctx, id)
	return nil
}

// Search returns all products whose name, description, brand or any tag
// contains the term, case-insensitively.
func (s *Catalog) Search(ctx context.Context, term string) ([]*domain.Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, domain.Invalid("catalog.search", "search term is required")
	}

	var filter store.Filter
	for _, field := range []string{"name", "description", "brand", "tags"} {
		filter = filter.OrWhere(field, store.OpContainsFold, term)
	}

	products, err := s.products.Find(ctx, store.Query{Filter: filter})
	if err != nil {
		return nil, domain.Internal(err, "catalog.search", "failed to search products")
	}
	if products == nil {
		products = []*domain.Product{}
	}
	return products, nil
}

// AdjustStock adds delta to the product's stock. Deltas that drive stock
// negative are applied as-is; callers see the resulting value.
func (s *Catalog) AdjustStock(ctx context.Context, id string, delta int) (*domain.Product, error) {
	updated, err := mutateDocument(ctx, s.products, id, domain.ErrProductNotFound, func(p *domain.Product) error {
		p.Stock += delta
		p.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, id)
	return updated, nil
}

func validateCreate(params domain.CreateProductParams) error {
	switch {
	case strings.TrimSpace(params.Name) == "":
		return domain.Invalid("catalog.create", "name is required")
	case strings.TrimSpace(params.Description) == "":
		return domain.Invalid("catalog.create", "description is required")
	case strings.TrimSpace(params.Category) == "":
		return domain.Invalid("catalog.create", "category is required")
	case strings.TrimSpace(params.Brand) == "":
		return domain.Invalid("catalog.create", "brand is required")
	case strings.TrimSpace(params.ImageURL) == "":
		return domain.Invalid("catalog.create", "imageUrl is required")
	case params.Price < 0:
		return domain.Invalid("catalog.create", "price must not be negative")
	case params.Discount < 0:
		return domain.Invalid("catalog.create", "discount must not be negative")
	case params.Stock < 0:
		return domain.Invalid("catalog.create", "stock must not be negative")
	}
	return nil
}

func mergeUpdate(p *domain.Product, params domain.UpdateProductParams) error {
	if params.Name != nil {
		if strings.TrimSpace(*params.Name) == "" {
			return domain.Invalid("catalog.update", "name must not be empty")
		}
		p.Name = *params.Name
	}
	if params.Description != nil {
		p.Description = *params.Description
	}
	if params.Price != nil {
		if *params.Price < 0 {
			return domain.Invalid("catalog.update", "price must not be negative")
		}
		p.Price = *params.Price
	}
	if params.Category != nil {
		p.Category = *params.Category
	}
	if params.Brand != nil {
		p.Brand = *params.Brand
	}
	if params.ImageURL != nil {
		p.ImageURL = *params.ImageURL
	}
	if params.AdditionalImages != nil {
		p.AdditionalImages = params.AdditionalImages
	}
	if params.Discount != nil {
		if *params.Discount < 0 {
			return domain.Invalid("catalog.update", "discount must not be negative")
		}
		p.Discount = *params.Discount
	}
	if params.Stock != nil {
		if *params.Stock < 0 {
			return domain.Invalid("catalog.update", "stock must not be negative")
		}
		p.Stock = *params.Stock
	}
	if params.Specifications != nil {
		p.Specifications = params.Specifications
	}
	if params.IsAvailable != nil {
		p.IsAvailable = *params.IsAvailable
	}
	if params.Tags != nil {
		p.Tags = params.Tags
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func listFilter(params domain.ListProductsParams) store.Filter {
	var filter store.Filter
	if params.Category != "" {
		filter = filter.Where("category", store.OpEq, params.Category)
	}
	if params.Brand != "" {
		filter = filter.Where("brand", store.OpEq, params.Brand)
	}
	if params.MinPrice != nil {
		filter = filter.Where("price", store.OpGte, *params.MinPrice)
	}
	if params.MaxPrice != nil {
		filter = filter.Where("price", store.OpLte, *params.MaxPrice)
	}
	return filter
}
