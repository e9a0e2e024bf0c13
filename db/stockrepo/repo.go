package stockrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/sksmith/reservation-engine/core"
	"github.com/sksmith/reservation-engine/core/stock"
	"github.com/sksmith/reservation-engine/db"
)

type dbRepo struct {
	conn core.Conn
}

func NewPostgresRepo(conn core.Conn) stock.Repository {
	return &dbRepo{
		conn: conn,
	}
}

func (d *dbRepo) GetStockRecord(ctx context.Context, productID, variantID, locationID string, options ...core.QueryOptions) (stock.StockRecord, error) {
	m := db.StartMetric("GetStockRecord")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	rec := stock.StockRecord{}
	err := tx.QueryRow(ctx, `
		SELECT product_id, variant_id, location_id, total, available, reserved, damaged, expired, version, last_updated
		  FROM stock_records
		 WHERE product_id = $1 AND variant_id = $2 AND location_id = $3 `+forUpdate,
		productID, variantID, locationID).
		Scan(&rec.ProductID, &rec.VariantID, &rec.LocationID, &rec.Total, &rec.Available,
			&rec.Reserved, &rec.Damaged, &rec.Expired, &rec.Version, &rec.LastUpdated)

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

func (d *dbRepo) UpdateStockRecord(ctx context.Context, rec stock.StockRecord, options ...core.UpdateOptions) error {
	m := db.StartMetric("UpdateStockRecord")
	tx := db.GetUpdateOptions(d.conn, options...)

	ct, err := tx.Exec(ctx, `
		UPDATE stock_records
		   SET total = $4, available = $5, reserved = $6, damaged = $7, expired = $8,
		       version = version + 1, last_updated = $9
		 WHERE product_id = $1 AND variant_id = $2 AND location_id = $3 AND version = $10;`,
		rec.ProductID, rec.VariantID, rec.LocationID, rec.Total, rec.Available,
		rec.Reserved, rec.Damaged, rec.Expired, time.Now(), rec.Version)
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

func (d *dbRepo) GetBatches(ctx context.Context, productID, variantID, locationID string, options ...core.QueryOptions) ([]stock.Batch, error) {
	m := db.StartMetric("GetBatches")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	batches := make([]stock.Batch, 0)
	rows, err := tx.Query(ctx, `
		SELECT batch_id, product_id, variant_id, location_id, expiry_date, remaining, version
		  FROM batches
		 WHERE product_id = $1 AND variant_id = $2 AND location_id = $3 AND remaining > 0
		 ORDER BY expiry_date ASC, batch_id ASC `+forUpdate,
		productID, variantID, locationID)
	if err != nil {
		m.Complete(err)
		if err == pgx.ErrNoRows {
			return batches, errors.WithStack(core.ErrNotFound)
		}
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	for rows.Next() {
		b := stock.Batch{}
		err = rows.Scan(&b.BatchID, &b.ProductID, &b.VariantID, &b.LocationID, &b.ExpiryDate, &b.Remaining, &b.Version)
		if err != nil {
			m.Complete(err)
			return nil, errors.WithStack(err)
		}
		batches = append(batches, b)
	}

	m.Complete(nil)
	return batches, nil
}

func (d *dbRepo) GetBatch(ctx context.Context, batchID string, options ...core.QueryOptions) (stock.Batch, error) {
	m := db.StartMetric("GetBatch")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	b := stock.Batch{}
	err := tx.QueryRow(ctx, `
		SELECT batch_id, product_id, variant_id, location_id, expiry_date, remaining, version
		  FROM batches
		 WHERE batch_id = $1 `+forUpdate,
		batchID).
		Scan(&b.BatchID, &b.ProductID, &b.VariantID, &b.LocationID, &b.ExpiryDate, &b.Remaining, &b.Version)

	if err != nil {
		m.Complete(err)
		if err == pgx.ErrNoRows {
			return b, errors.WithStack(core.ErrNotFound)
		}
		return b, errors.WithStack(err)
	}

	m.Complete(nil)
	return b, nil
}

func (d *dbRepo) UpdateBatch(ctx context.Context, batch stock.Batch, options ...core.UpdateOptions) error {
	m := db.StartMetric("UpdateBatch")
	tx := db.GetUpdateOptions(d.conn, options...)

	ct, err := tx.Exec(ctx, `
		UPDATE batches
		   SET remaining = $2, version = version + 1
		 WHERE batch_id = $1 AND version = $3;`,
		batch.BatchID, batch.Remaining, batch.Version)
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

func (d *dbRepo) SaveAllocation(ctx context.Context, alloc stock.BatchAllocation, options ...core.UpdateOptions) error {
	m := db.StartMetric("SaveAllocation")
	tx := db.GetUpdateOptions(d.conn, options...)

	insert := `INSERT INTO batch_allocations (leg_id, batch_id, product_id, variant_id, location_id, quantity, state)
                      VALUES ($1, $2, $3, $4, $5, $6, $7)
                 ON CONFLICT (leg_id, batch_id) DO UPDATE SET quantity = $6, state = $7;`
	_, err := tx.Exec(ctx, insert, alloc.LegID, alloc.BatchID, alloc.ProductID, alloc.VariantID, alloc.LocationID, alloc.Quantity, alloc.State)
	m.Complete(err)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (d *dbRepo) GetAllocations(ctx context.Context, legID string, options ...core.QueryOptions) ([]stock.BatchAllocation, error) {
	m := db.StartMetric("GetAllocations")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	allocs := make([]stock.BatchAllocation, 0)
	rows, err := tx.Query(ctx, `
		SELECT leg_id, batch_id, product_id, variant_id, location_id, quantity, state
		  FROM batch_allocations
		 WHERE leg_id = $1
		 ORDER BY batch_id ASC `+forUpdate,
		legID)
	if err != nil {
		m.Complete(err)
		if err == pgx.ErrNoRows {
			return allocs, errors.WithStack(core.ErrNotFound)
		}
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	for rows.Next() {
		a := stock.BatchAllocation{}
		err = rows.Scan(&a.LegID, &a.BatchID, &a.ProductID, &a.VariantID, &a.LocationID, &a.Quantity, &a.State)
		if err != nil {
			m.Complete(err)
			return nil, errors.WithStack(err)
		}
		allocs = append(allocs, a)
	}

	m.Complete(nil)
	return allocs, nil
}

func (d *dbRepo) GetAllocation(ctx context.Context, legID, batchID string, options ...core.QueryOptions) (stock.BatchAllocation, error) {
	m := db.StartMetric("GetAllocation")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	a := stock.BatchAllocation{}
	err := tx.QueryRow(ctx, `
		SELECT leg_id, batch_id, product_id, variant_id, location_id, quantity, state
		  FROM batch_allocations
		 WHERE leg_id = $1 AND batch_id = $2 `+forUpdate,
		legID, batchID).
		Scan(&a.LegID, &a.BatchID, &a.ProductID, &a.VariantID, &a.LocationID, &a.Quantity, &a.State)

	if err != nil {
		m.Complete(err)
		if err == pgx.ErrNoRows {
			return a, errors.WithStack(core.ErrNotFound)
		}
		return a, errors.WithStack(err)
	}

	m.Complete(nil)
	return a, nil
}

func (d *dbRepo) UpdateAllocationState(ctx context.Context, legID, batchID string, state stock.LegState, options ...core.UpdateOptions) error {
	m := db.StartMetric("UpdateAllocationState")
	tx := db.GetUpdateOptions(d.conn, options...)

	update := `UPDATE batch_allocations SET state = $3 WHERE leg_id = $1 AND batch_id = $2 AND state = $4;`
	ct, err := tx.Exec(ctx, update, legID, batchID, state, stock.LegReserved)
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
