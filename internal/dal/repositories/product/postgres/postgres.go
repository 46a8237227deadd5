package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/storefront/internal/dal/pgconn"
	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	"github.com/shopspring/decimal"
)

// ProductDal represents product data access layer model.
type ProductDal struct {
	Id          string
	Name        string
	Description string
	Price       string
	Category    string
	Image       string
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ToModel converts ProductDal to service layer Product model.
func (p *ProductDal) ToModel() (product.Product, error) {
	category, err := product.ParseCategory(p.Category)
	if err != nil {
		return product.Product{}, err
	}
	price, err := decimal.NewFromString(p.Price)
	if err != nil {
		return product.Product{}, fmt.Errorf("failed to parse product price: %w", err)
	}

	return product.Product{
		ID:          p.Id,
		Name:        p.Name,
		Description: p.Description,
		Price:       price,
		Category:    category,
		Image:       p.Image,
		Available:   p.Available,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}

// PostgresProductRepository reads the product catalog.
type PostgresProductRepository struct {
	conn pgconn.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresProductRepository creates a new Postgres product repository.
func NewPostgresProductRepository(conn pgconn.GenericConn) *PostgresProductRepository {
	return &PostgresProductRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Query retrieves products ordered by category and name.
func (r *PostgresProductRepository) Query(
	ctx context.Context,
	filter *product.QueryProductsModel,
) ([]product.Product, error) {
	query := r.sb.
		Select(
			"id::text",
			"name",
			"description",
			"price::text",
			"category",
			"image",
			"available",
			"created_at",
			"updated_at",
		).
		From("products").
		OrderBy("category ASC", "name ASC")

	if filter != nil {
		if len(filter.Ids) > 0 {
			query = query.Where(sq.Expr("id::text = ANY(?)", filter.Ids))
		}
		if len(filter.Categories) > 0 {
			categories := make([]string, len(filter.Categories))
			for i, c := range filter.Categories {
				categories[i] = c.String()
			}
			query = query.Where(sq.Eq{"category": categories})
		}
		if filter.AvailableOnly {
			query = query.Where(sq.Eq{"available": true})
		}
		if filter.Limit > 0 {
			query = query.Limit(uint64(filter.Limit))
		}
		if filter.Offset > 0 {
			query = query.Offset(uint64(filter.Offset))
		}
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	result := []product.Product{}
	for rows.Next() {
		var dal ProductDal
		err := rows.Scan(
			&dal.Id,
			&dal.Name,
			&dal.Description,
			&dal.Price,
			&dal.Category,
			&dal.Image,
			&dal.Available,
			&dal.CreatedAt,
			&dal.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		model, err := dal.ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert product dal to model: %w", err)
		}
		result = append(result, model)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
