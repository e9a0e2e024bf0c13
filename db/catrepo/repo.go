package catrepo

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/reservation-engine/core"
	"github.com/sksmith/reservation-engine/core/catalog"
	"github.com/sksmith/reservation-engine/db"

	lru "github.com/hashicorp/golang-lru"
)

// Variant weights change rarely, so reads are served through a small cache to
// keep them off the reservation hot path.
type dbRepo struct {
	conn core.Conn
	c    *lru.Cache
}

func NewPostgresRepo(conn core.Conn) catalog.Repository {
	l, err := lru.New(1024)
	if err != nil {
		log.Warn().Err(err).Msg("unable to configure cache")
	}
	return &dbRepo{
		conn: conn,
		c:    l,
	}
}

func (r *dbRepo) GetProductVariant(ctx context.Context, productID, variantID string, options ...core.QueryOptions) (catalog.ProductVariant, error) {
	m := db.StartMetric("GetProductVariant")
	tx, forUpdate := db.GetQueryOptions(r.conn, options...)

	key := productID + "/" + variantID
	pv, ok := r.getcache(key)
	if ok {
		return pv, nil
	}

	err := tx.QueryRow(ctx, `SELECT product_id, variant_id, name, unit_weight_kg FROM product_variants WHERE product_id = $1 AND variant_id = $2 `+forUpdate,
		productID, variantID).
		Scan(&pv.ProductID, &pv.VariantID, &pv.Name, &pv.UnitWeightKg)
	if err != nil {
		m.Complete(err)
		if err == pgx.ErrNoRows {
			return catalog.ProductVariant{}, errors.WithStack(core.ErrNotFound)
		}
		return catalog.ProductVariant{}, errors.WithStack(err)
	}

	r.cache(key, pv)
	m.Complete(nil)
	return pv, nil
}

func (r *dbRepo) cache(key string, pv catalog.ProductVariant) {
	if r.c == nil {
		return
	}
	r.c.Add(key, pv)
}

func (r *dbRepo) getcache(key string) (catalog.ProductVariant, bool) {
	if r.c == nil {
		return catalog.ProductVariant{}, false
	}

	v, ok := r.c.Get(key)
	if !ok {
		return catalog.ProductVariant{}, false
	}
	pv, ok := v.(catalog.ProductVariant)
	return pv, ok
}
