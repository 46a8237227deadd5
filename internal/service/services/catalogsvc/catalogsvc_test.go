package catalogsvc

import (
	"context"
	"testing"

	"github.com/corray333/backend-labs/storefront/internal/dal/memory"
	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListProducts_PrioritizesHistory(t *testing.T) {
	store := memory.NewStore(memory.DefaultCatalog()...)
	svc := MustNewCatalogService(WithUnitOfWorkFactory(memory.NewFactory(store)))

	all, err := svc.ListProducts(context.Background(), product.QueryProductsModel{}, nil)
	require.NoError(t, err)
	require.Greater(t, len(all), 3)

	last := all[len(all)-1]
	prioritized, err := svc.ListProducts(context.Background(), product.QueryProductsModel{}, []string{last.ID})
	require.NoError(t, err)

	assert.Equal(t, last.ID, prioritized[0].ID)
	assert.Len(t, prioritized, len(all))
	assert.Equal(t, all[0].ID, prioritized[1].ID)
}

func TestListProducts_FiltersByCategory(t *testing.T) {
	store := memory.NewStore(memory.DefaultCatalog()...)
	svc := MustNewCatalogService(WithUnitOfWorkFactory(memory.NewFactory(store)))

	crepes, err := svc.ListProducts(context.Background(), product.QueryProductsModel{
		Categories: []product.Category{product.CategoryCrepes},
	}, nil)
	require.NoError(t, err)
	require.Len(t, crepes, 1)
	assert.Equal(t, "Nutella Crepe", crepes[0].Name)
}
