package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/pgconn"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var orderColumns = []string{
	"id::text",
	"customer_name",
	"customer_phone",
	"customer_address",
	"location_lat",
	"location_lng",
	"location_address",
	"total_amount::text",
	"payment_method",
	"status",
	"created_at",
	"updated_at",
}

// OrderDal represents order data access layer model.
type OrderDal struct {
	Id              string
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	LocationLat     *float64
	LocationLng     *float64
	LocationAddress *string
	TotalAmount     string
	PaymentMethod   string
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ToModel converts OrderDal to service layer Order model.
func (o *OrderDal) ToModel() (order.Order, error) {
	status, err := order.ParseStatus(o.Status)
	if err != nil {
		return order.Order{}, err
	}
	total, err := decimal.NewFromString(o.TotalAmount)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to parse total amount: %w", err)
	}

	model := order.Order{
		ID:              o.Id,
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		CustomerAddress: o.CustomerAddress,
		TotalAmount:     total,
		PaymentMethod:   order.PaymentMethod(o.PaymentMethod),
		Status:          status,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if o.LocationLat != nil && o.LocationLng != nil {
		loc := &order.Location{Lat: *o.LocationLat, Lng: *o.LocationLng}
		if o.LocationAddress != nil {
			loc.Address = *o.LocationAddress
		}
		model.Location = loc
	}

	return model, nil
}

func (o *OrderDal) scanTargets() []any {
	return []any{
		&o.Id,
		&o.CustomerName,
		&o.CustomerPhone,
		&o.CustomerAddress,
		&o.LocationLat,
		&o.LocationLng,
		&o.LocationAddress,
		&o.TotalAmount,
		&o.PaymentMethod,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	}
}

// PostgresOrderRepository stores order headers.
type PostgresOrderRepository struct {
	conn pgconn.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderRepository creates a new Postgres order repository.
func NewPostgresOrderRepository(conn pgconn.GenericConn) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert stores the order header. The id is generated by the database.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o order.Order) (order.Order, error) {
	var lat, lng *float64
	var address *string
	if o.Location != nil {
		lat, lng, address = &o.Location.Lat, &o.Location.Lng, &o.Location.Address
	}

	sql, args, err := r.sb.Insert("orders").
		Columns(
			"customer_name",
			"customer_phone",
			"customer_address",
			"location_lat",
			"location_lng",
			"location_address",
			"total_amount",
			"payment_method",
			"status",
			"created_at",
			"updated_at",
		).
		Values(
			o.CustomerName,
			o.CustomerPhone,
			o.CustomerAddress,
			lat,
			lng,
			address,
			o.TotalAmount.String(),
			o.PaymentMethod.String(),
			o.Status.String(),
			o.CreatedAt,
			o.UpdatedAt,
		).
		Suffix("RETURNING id::text").
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&o.ID); err != nil {
		return order.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	return o, nil
}

// Query retrieves orders based on filter criteria, newest first.
func (r *PostgresOrderRepository) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	query := r.sb.Select(orderColumns...).
		From("orders").
		OrderBy("created_at DESC", "id DESC")

	if filter != nil {
		if len(filter.Ids) > 0 {
			query = query.Where(sq.Expr("id::text = ANY(?)", filter.Ids))
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
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	result := []order.Order{}
	for rows.Next() {
		var dal OrderDal
		if err := rows.Scan(dal.scanTargets()...); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		model, err := dal.ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert order dal to model: %w", err)
		}
		result = append(result, model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// UpdateStatus sets the status and update time of one order.
func (r *PostgresOrderRepository) UpdateStatus(
	ctx context.Context,
	id string,
	status order.Status,
	updatedAt time.Time,
) (order.Order, error) {
	sql, args, err := r.sb.Update("orders").
		Set("status", status.String()).
		Set("updated_at", updatedAt).
		Where(sq.Expr("id::text = ?", id)).
		Suffix("RETURNING " + strings.Join(orderColumns, ", ")).
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build update query: %w", err)
	}

	var dal OrderDal
	if err := r.conn.QueryRow(ctx, sql, args...).Scan(dal.scanTargets()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, iorderrepo.ErrNotFound
		}

		return order.Order{}, fmt.Errorf("failed to update order status: %w", err)
	}

	return dal.ToModel()
}
