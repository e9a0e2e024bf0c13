package slotrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/sksmith/reservation-engine/core"
	"github.com/sksmith/reservation-engine/core/slot"
	"github.com/sksmith/reservation-engine/db"
)

type dbRepo struct {
	conn core.Conn
}

func NewPostgresRepo(conn core.Conn) slot.Repository {
	return &dbRepo{
		conn: conn,
	}
}

func (d *dbRepo) GetSlotRecord(ctx context.Context, pincode, slotID, date string, options ...core.QueryOptions) (slot.SlotRecord, error) {
	m := db.StartMetric("GetSlotRecord")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	rec := slot.SlotRecord{}
	err := tx.QueryRow(ctx, `
		SELECT pincode, slot_id, slot_date, max_capacity, current_bookings, max_weight, current_weight, delivery_charge, status, version, last_updated
		  FROM slot_records
		 WHERE pincode = $1 AND slot_id = $2 AND slot_date = $3 `+forUpdate,
		pincode, slotID, date).
		Scan(&rec.Pincode, &rec.SlotID, &rec.Date, &rec.MaxCapacity, &rec.CurrentBookings,
			&rec.MaxWeight, &rec.CurrentWeight, &rec.DeliveryCharge, &rec.Status, &rec.Version, &rec.LastUpdated)

	if err != nil {
		m.Complete(err)
		if err == pgx.ErrNoRows {
			return rec, errors.WithStack(core.ErrNotFound)
		}
		return rec, errors.WithStack(err)
	}

	m.Complete(nil)
	return rec, nil
}

func (d *dbRepo) CreateSlotRecord(ctx context.Context, rec slot.SlotRecord, options ...core.UpdateOptions) error {
	m := db.StartMetric("CreateSlotRecord")
	tx := db.GetUpdateOptions(d.conn, options...)

	insert := `INSERT INTO slot_records (pincode, slot_id, slot_date, max_capacity, current_bookings, max_weight, current_weight, delivery_charge, status, version, last_updated)
                      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, $10)
                 ON CONFLICT (pincode, slot_id, slot_date) DO NOTHING;`
	ct, err := tx.Exec(ctx, insert, rec.Pincode, rec.SlotID, rec.Date, rec.MaxCapacity, rec.CurrentBookings,
		rec.MaxWeight, rec.CurrentWeight, rec.DeliveryCharge, rec.Status, time.Now())
	if err != nil {
		m.Complete(err)
		return errors.WithStack(err)
	}
	if ct.RowsAffected() == 0 {
		// Another booking seeded the record first. The caller re-reads and retries.
		m.Complete(core.ErrConflict)
		return errors.WithStack(core.ErrConflict)
	}
	m.Complete(nil)
	return nil
}

func (d *dbRepo) UpdateSlotRecord(ctx context.Context, rec slot.SlotRecord, options ...core.UpdateOptions) error {
	m := db.StartMetric("UpdateSlotRecord")
	tx := db.GetUpdateOptions(d.conn, options...)

	ct, err := tx.Exec(ctx, `
		UPDATE slot_records
		   SET current_bookings = $4, current_weight = $5, status = $6,
		       version = version + 1, last_updated = $7
		 WHERE pincode = $1 AND slot_id = $2 AND slot_date = $3 AND version = $8;`,
		rec.Pincode, rec.SlotID, rec.Date, rec.CurrentBookings, rec.CurrentWeight,
		rec.Status, time.Now(), rec.Version)
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

func (d *dbRepo) SaveSlotLeg(ctx context.Context, leg slot.SlotLeg, options ...core.UpdateOptions) error {
	m := db.StartMetric("SaveSlotLeg")
	tx := db.GetUpdateOptions(d.conn, options...)

	insert := `INSERT INTO slot_legs (leg_id, pincode, slot_id, slot_date, weight, state)
                      VALUES ($1, $2, $3, $4, $5, $6)
                 ON CONFLICT (leg_id) DO UPDATE SET weight = $5, state = $6;`
	_, err := tx.Exec(ctx, insert, leg.LegID, leg.Pincode, leg.SlotID, leg.Date, leg.Weight, leg.State)
	m.Complete(err)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (d *dbRepo) GetSlotLeg(ctx context.Context, legID string, options ...core.QueryOptions) (slot.SlotLeg, error) {
	m := db.StartMetric("GetSlotLeg")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	leg := slot.SlotLeg{}
	err := tx.QueryRow(ctx, `
		SELECT leg_id, pincode, slot_id, slot_date, weight, state
		  FROM slot_legs
		 WHERE leg_id = $1 `+forUpdate,
		legID).
		Scan(&leg.LegID, &leg.Pincode, &leg.SlotID, &leg.Date, &leg.Weight, &leg.State)

	if err != nil {
		m.Complete(err)
		if err == pgx.ErrNoRows {
			return leg, errors.WithStack(core.ErrNotFound)
		}
		return leg, errors.WithStack(err)
	}

	m.Complete(nil)
	return leg, nil
}

func (d *dbRepo) UpdateSlotLegState(ctx context.Context, legID string, state slot.LegState, options ...core.UpdateOptions) error {
	m := db.StartMetric("UpdateSlotLegState")
	tx := db.GetUpdateOptions(d.conn, options...)

	update := `UPDATE slot_legs SET state = $2 WHERE leg_id = $1 AND state = $3;`
	ct, err := tx.Exec(ctx, update, legID, state, slot.LegReserved)
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

func (d *dbRepo) BeginTransaction(ctx context.Context) (core.Transaction, error) {
	tx, err := d.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}
