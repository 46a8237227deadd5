package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/storefront/internal/dal/pgconn"
	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// OrderItemDal represents order item data access layer model.
type OrderItemDal struct {
	Id        int64
	OrderId   string
	ProductId string
	Name      string
	Quantity  int
	Price     string
	CreatedAt time.Time
}

// ToModel converts OrderItemDal to service layer OrderItem model.
func (oi *OrderItemDal) ToModel() (orderitem.OrderItem, error) {
	price, err := decimal.NewFromString(oi.Price)
	if err != nil {
		return orderitem.OrderItem{}, fmt.Errorf("failed to parse item price: %w", err)
	}

	return orderitem.OrderItem{
		ID:        oi.Id,
		OrderID:   oi.OrderId,
		ProductID: oi.ProductId,
		Name:      oi.Name,
		Quantity:  oi.Quantity,
		Price:     price,
		CreatedAt: oi.CreatedAt,
	}, nil
}

// PostgresOrderItemRepository represents a Postgres order item repository.
type PostgresOrderItemRepository struct {
	conn pgconn.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderItemRepository creates a new Postgres order item repository.
func NewPostgresOrderItemRepository(conn pgconn.GenericConn) *PostgresOrderItemRepository {
	return &PostgresOrderItemRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// BulkInsert inserts multiple order items in one statement and returns them with IDs.
func (r *PostgresOrderItemRepository) BulkInsert(
	ctx context.Context,
	orderItems []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	if len(orderItems) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	orderIds := make([]string, len(orderItems))
	productIds := make([]string, len(orderItems))
	names := make([]string, len(orderItems))
	quantities := make([]int32, len(orderItems))
	prices := make([]string, len(orderItems))
	createdAts := make([]pgtype.Timestamptz, len(orderItems))

	for i, oi := range orderItems {
		orderIds[i] = oi.OrderID
		productIds[i] = oi.ProductID
		names[i] = oi.Name
		quantities[i] = int32(oi.Quantity)
		prices[i] = oi.Price.String()
		createdAts[i] = pgtype.Timestamptz{Time: oi.CreatedAt, Valid: true}
	}

	sql := `
		INSERT INTO order_items (order_id, product_id, name, quantity, price, created_at)
		SELECT order_id::uuid, product_id::uuid, name, quantity, price::numeric, created_at
		FROM unnest($1::text[], $2::text[], $3::text[], $4::int[], $5::text[], $6::timestamptz[])
		AS t(order_id, product_id, name, quantity, price, created_at)
		RETURNING id, order_id::text, product_id::text, name, quantity, price::text, created_at
	`

	rows, err := r.conn.Query(ctx, sql, orderIds, productIds, names, quantities, prices, createdAts)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk insert order items: %w", err)
	}
	defer rows.Close()

	return scanOrderItems(rows)
}

// Query retrieves order items based on filter criteria.
func (r *PostgresOrderItemRepository) Query(
	ctx context.Context,
	filter *orderitem.QueryOrderItemsModel,
) ([]orderitem.OrderItem, error) {
	query := r.sb.
		Select(
			"id",
			"order_id::text",
			"product_id::text",
			"name",
			"quantity",
			"price::text",
			"created_at",
		).
		From("order_items").
		OrderBy("id ASC")

	if filter != nil {
		if len(filter.OrderIds) > 0 {
			query = query.Where(sq.Expr("order_id::text = ANY(?)", filter.OrderIds))
		}
		if len(filter.ProductIds) > 0 {
			query = query.Where(sq.Expr("product_id::text = ANY(?)", filter.ProductIds))
		}
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	return scanOrderItems(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanOrderItems(rows rowScanner) ([]orderitem.OrderItem, error) {
	result := []orderitem.OrderItem{}
	for rows.Next() {
		var dal OrderItemDal
		err := rows.Scan(
			&dal.Id,
			&dal.OrderId,
			&dal.ProductId,
			&dal.Name,
			&dal.Quantity,
			&dal.Price,
			&dal.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		model, err := dal.ToModel()
		if err != nil {
			return nil, err
		}
		result = append(result, model)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
