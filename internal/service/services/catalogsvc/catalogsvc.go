package catalogsvc

import (
	"context"
	"fmt"

	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iuow"
	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	"github.com/corray333/backend-labs/storefront/internal/service/services/historysvc"
)

// CatalogService serves the product catalog.
type CatalogService struct {
	newUOW iuow.Factory
}

type option func(*CatalogService)

// MustNewCatalogService creates a new CatalogService.
func MustNewCatalogService(opts ...option) *CatalogService {
	s := &CatalogService{}
	for _, opt := range opts {
		opt(s)
	}
	if s.newUOW == nil {
		panic("catalogsvc: unit of work factory is required")
	}

	return s
}

// WithUnitOfWorkFactory sets the unit of work factory.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(factory iuow.Factory) option {
	return func(s *CatalogService) {
		s.newUOW = factory
	}
}

// ListProducts returns products matching query, with the ids in prioritize moved to the front.
func (s *CatalogService) ListProducts(
	ctx context.Context,
	query product.QueryProductsModel,
	prioritize []string,
) ([]product.Product, error) {
	products, err := s.newUOW().ProductRepository().Query(ctx, &query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	return historysvc.Prioritize(products, prioritize), nil
}
