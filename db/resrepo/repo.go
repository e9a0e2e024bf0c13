package resrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/sksmith/reservation-engine/core"
	"github.com/sksmith/reservation-engine/core/reservation"
	"github.com/sksmith/reservation-engine/db"
)

type dbRepo struct {
	conn core.Conn
}

func NewPostgresRepo(conn core.Conn) reservation.Repository {
	return &dbRepo{
		conn: conn,
	}
}

func (d *dbRepo) GetReservation(ctx context.Context, reservationID string, options ...core.QueryOptions) (reservation.Reservation, error) {
	m := db.StartMetric("GetReservation")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	res := reservation.Reservation{}
	err := tx.QueryRow(ctx, `
		SELECT reservation_id, order_id, pincode, slot_id, slot_date, weight, slot_leg_id, state, decline_reason, created, expires_at, version
		  FROM reservations
		 WHERE reservation_id = $1 `+forUpdate,
		reservationID).
		Scan(&res.ReservationID, &res.OrderID, &res.Pincode, &res.SlotID, &res.Date, &res.Weight,
			&res.SlotLegID, &res.State, &res.DeclineReason, &res.Created, &res.ExpiresAt, &res.Version)

	if err != nil {
		m.Complete(err)
		if err == pgx.ErrNoRows {
			return res, errors.WithStack(core.ErrNotFound)
		}
		return res, errors.WithStack(err)
	}

	res.Lines, err = d.getLines(ctx, tx, reservationID, forUpdate)
	if err != nil {
		m.Complete(err)
		return res, err
	}

	m.Complete(nil)
	return res, nil
}

func (d *dbRepo) getLines(ctx context.Context, tx core.Conn, reservationID, forUpdate string) ([]reservation.Line, error) {
	lines := make([]reservation.Line, 0)
	rows, err := tx.Query(ctx, `
		SELECT product_id, variant_id, location_id, quantity, stock_leg_id
		  FROM reservation_lines
		 WHERE reservation_id = $1
		 ORDER BY line_no ASC `+forUpdate,
		reservationID)
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

func (d *dbRepo) CreateReservation(ctx context.Context, res *reservation.Reservation, options ...core.UpdateOptions) error {
	m := db.StartMetric("CreateReservation")
	tx := db.GetUpdateOptions(d.conn, options...)

	insert := `INSERT INTO reservations (reservation_id, order_id, pincode, slot_id, slot_date, weight, slot_leg_id, state, decline_reason, created, expires_at, version)
                      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1)
                 ON CONFLICT (reservation_id) DO NOTHING;`
	ct, err := tx.Exec(ctx, insert, res.ReservationID, res.OrderID, res.Pincode, res.SlotID, res.Date,
		res.Weight, res.SlotLegID, res.State, res.DeclineReason, res.Created, res.ExpiresAt)
	if err != nil {
		m.Complete(err)
		return errors.WithStack(err)
	}
	if ct.RowsAffected() == 0 {
		// A request with the same id got here first. The caller re-reads and
		// returns its reservation instead of starting a second saga.
		m.Complete(core.ErrConflict)
		return errors.WithStack(core.ErrConflict)
	}

	if err = d.saveLines(ctx, tx, res); err != nil {
		m.Complete(err)
		return err
	}

	res.Version = 1
	m.Complete(nil)
	return nil
}

func (d *dbRepo) SaveReservation(ctx context.Context, res *reservation.Reservation, options ...core.UpdateOptions) error {
	m := db.StartMetric("SaveReservation")
	tx := db.GetUpdateOptions(d.conn, options...)

	update := `UPDATE reservations
                  SET weight = $2, slot_leg_id = $3, state = $4, decline_reason = $5, expires_at = $6,
                      version = version + 1
                WHERE reservation_id = $1 AND version = $7;`
	ct, err := tx.Exec(ctx, update, res.ReservationID, res.Weight, res.SlotLegID, res.State,
		res.DeclineReason, res.ExpiresAt, res.Version)
	if err != nil {
		m.Complete(err)
		return errors.WithStack(err)
	}
	if ct.RowsAffected() == 0 {
		m.Complete(core.ErrConflict)
		return errors.WithStack(core.ErrConflict)
	}

	if err = d.saveLines(ctx, tx, res); err != nil {
		m.Complete(err)
		return err
	}

	res.Version++
	m.Complete(nil)
	return nil
}

func (d *dbRepo) saveLines(ctx context.Context, tx core.Conn, res *reservation.Reservation) error {
	_, err := tx.Exec(ctx, `DELETE FROM reservation_lines WHERE reservation_id = $1;`, res.ReservationID)
	if err != nil {
		return errors.WithStack(err)
	}
	for i, l := range res.Lines {
		_, err = tx.Exec(ctx, `
			INSERT INTO reservation_lines (reservation_id, line_no, product_id, variant_id, location_id, quantity, stock_leg_id)
                              VALUES ($1, $2, $3, $4, $5, $6, $7);`,
			res.ReservationID, i, l.ProductID, l.VariantID, l.LocationID, l.Quantity, l.StockLegID)
		if err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func (d *dbRepo) UpdateReservationState(ctx context.Context, reservationID string, state reservation.State, declineReason string, options ...core.UpdateOptions) error {
	m := db.StartMetric("UpdateReservationState")
	tx := db.GetUpdateOptions(d.conn, options...)

	update := `UPDATE reservations SET state = $2, decline_reason = $3, version = version + 1
                WHERE reservation_id = $1 AND state = ANY($4);`
	ct, err := tx.Exec(ctx, update, reservationID, state, declineReason, transitionsInto(state))
	if err != nil {
		m.Complete(err)
		return errors.WithStack(err)
	}
	if ct.RowsAffected() == 0 {
		m.Complete(core.ErrConflict)
		return errors.WithStack(core.ErrConflict)
	}
	m.Complete(nil)
	return nil
}

// transitionsInto lists the stored states a reservation may hold for the
// transition to apply; anything else means a concurrent transition won.
func transitionsInto(state reservation.State) []string {
	switch state {
	case reservation.Committed:
		return []string{string(reservation.Confirmed)}
	case reservation.Expired:
		return []string{string(reservation.Pending), string(reservation.Confirmed), string(reservation.Released)}
	default:
		return []string{string(reservation.Pending), string(reservation.Confirmed)}
	}
}

func (d *dbRepo) GetExpired(ctx context.Context, cutoff time.Time, limit int, options ...core.QueryOptions) ([]reservation.Reservation, error) {
	m := db.StartMetric("GetExpiredReservations")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	reservations := make([]reservation.Reservation, 0)
	rows, err := tx.Query(ctx, `
		SELECT reservation_id, order_id, pincode, slot_id, slot_date, weight, slot_leg_id, state, decline_reason, created, expires_at, version
		  FROM reservations
		 WHERE state IN ('PENDING', 'CONFIRMED') AND expires_at < $1
		 ORDER BY expires_at ASC LIMIT $2 `+forUpdate,
		cutoff, limit)
	if err != nil {
		m.Complete(err)
		if err == pgx.ErrNoRows {
			return reservations, errors.WithStack(core.ErrNotFound)
		}
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	for rows.Next() {
		res := reservation.Reservation{}
		err = rows.Scan(&res.ReservationID, &res.OrderID, &res.Pincode, &res.SlotID, &res.Date, &res.Weight,
			&res.SlotLegID, &res.State, &res.DeclineReason, &res.Created, &res.ExpiresAt, &res.Version)
		if err != nil {
			m.Complete(err)
			return nil, errors.WithStack(err)
		}
		reservations = append(reservations, res)
	}

	for i := range reservations {
		reservations[i].Lines, err = d.getLines(ctx, tx, reservations[i].ReservationID, "")
		if err != nil {
			m.Complete(err)
			return nil, err
		}
	}

	m.Complete(nil)
	return reservations, nil
}
