package orderrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/sksmith/reservation-engine/core"
	"github.com/sksmith/reservation-engine/core/order"
	"github.com/sksmith/reservation-engine/core/reservation"
	"github.com/sksmith/reservation-engine/db"
)

type dbRepo struct {
	conn core.Conn
}

func NewPostgresRepo(conn core.Conn) order.Repository {
	return &dbRepo{
		conn: conn,
	}
}

func (d *dbRepo) GetOrder(ctx context.Context, orderID string, options ...core.QueryOptions) (order.Order, error) {
	m := db.StartMetric("GetOrder")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	o := order.Order{}
	err := tx.QueryRow(ctx, `
		SELECT order_id, reservation_id, pincode, slot_id, slot_date, status, created, updated, version
		  FROM orders
		 WHERE order_id = $1 `+forUpdate,
		orderID).
		Scan(&o.OrderID, &o.ReservationID, &o.Pincode, &o.SlotID, &o.Date, &o.Status, &o.Created, &o.Updated, &o.Version)

	if err != nil {
		m.Complete(err)
		if err == pgx.ErrNoRows {
			return o, errors.WithStack(core.ErrNotFound)
		}
		return o, errors.WithStack(err)
	}

	o.Lines, err = d.getLines(ctx, tx, orderID)
	if err != nil {
		m.Complete(err)
		return o, err
	}

	m.Complete(nil)
	return o, nil
}

func (d *dbRepo) getLines(ctx context.Context, tx core.Conn, orderID string) ([]reservation.Line, error) {
	lines := make([]reservation.Line, 0)
	rows, err := tx.Query(ctx, `
		SELECT product_id, variant_id, location_id, quantity, stock_leg_id
		  FROM order_lines
		 WHERE order_id = $1
		 ORDER BY line_no ASC`,
		orderID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	for rows.Next() {
		l := reservation.Line{}
		err = rows.Scan(&l.ProductID, &l.VariantID, &l.LocationID, &l.Quantity, &l.StockLegID)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func (d *dbRepo) SaveOrder(ctx context.Context, o *order.Order, options ...core.UpdateOptions) error {
	m := db.StartMetric("SaveOrder")
	tx := db.GetUpdateOptions(d.conn, options...)

	insert := `INSERT INTO orders (order_id, reservation_id, pincode, slot_id, slot_date, status, created, updated, version)
                      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
                 ON CONFLICT (order_id) DO NOTHING;`
	_, err := tx.Exec(ctx, insert, o.OrderID, o.ReservationID, o.Pincode, o.SlotID, o.Date, o.Status, o.Created, o.Updated)
	if err != nil {
		m.Complete(err)
		return errors.WithStack(err)
	}

	for i, l := range o.Lines {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_lines (order_id, line_no, product_id, variant_id, location_id, quantity, stock_leg_id)
                              VALUES ($1, $2, $3, $4, $5, $6, $7)
                         ON CONFLICT (order_id, line_no) DO NOTHING;`,
			o.OrderID, i, l.ProductID, l.VariantID, l.LocationID, l.Quantity, l.StockLegID)
		if err != nil {
			m.Complete(err)
			return errors.WithStack(err)
		}
	}

	m.Complete(nil)
	return nil
}

func (d *dbRepo) UpdateOrderStatus(ctx context.Context, orderID string, status order.Status, options ...core.UpdateOptions) error {
	m := db.StartMetric("UpdateOrderStatus")
	tx := db.GetUpdateOptions(d.conn, options...)

	update := `UPDATE orders SET status = $2, updated = $3, version = version + 1 WHERE order_id = $1;`
	_, err := tx.Exec(ctx, update, orderID, status, time.Now())
	m.Complete(err)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}
