package stock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/reservation-engine/core"
)

func NewService(repo Repository, q Queue, retry core.RetryPolicy) *service {
	return &service{
		repo:      repo,
		queue:     q,
		retry:     retry,
		stockSubs: make(map[StockSubscriptionID]chan<- StockRecord),
	}
}

type Service interface {
	Reserve(ctx context.Context, rr ReserveRequest) (ReservationLeg, error)
	Release(ctx context.Context, legID string) error
	Commit(ctx context.Context, legID string) error
	AdjustForDamageOrExpiry(ctx context.Context, ar AdjustmentRequest) error

	GetStockRecord(ctx context.Context, productID, variantID, locationID string) (StockRecord, error)
	GetBatches(ctx context.Context, productID, variantID, locationID string) ([]Batch, error)

	SubscribeStock(ch chan<- StockRecord) (id StockSubscriptionID)
	UnsubscribeStock(id StockSubscriptionID)
}

type StockSubscriptionID string

type service struct {
	repo  Repository
	queue Queue
	retry core.RetryPolicy

	subMu     sync.Mutex
	stockSubs map[StockSubscriptionID]chan<- StockRecord
}

// Reserve debits batches earliest expiry first and moves the requested quantity
// from available to reserved on the aggregate. All writes are conditioned on the
// versions read at the start of the attempt; a losing writer backs off and retries.
func (s *service) Reserve(ctx context.Context, rr ReserveRequest) (ReservationLeg, error) {
	const funcName = "Reserve"

	log.Info().
		Str("func", funcName).
		Str("productId", rr.ProductID).
		Str("variantId", rr.VariantID).
		Str("locationId", rr.LocationID).
		Int64("quantity", rr.Quantity).
		Msg("reserving stock")

	if rr.Quantity < 1 {
		return ReservationLeg{}, errors.New("quantity must be greater than zero")
	}

	var leg ReservationLeg
	err := s.retry.Retry(ctx, func(ctx context.Context) error {
		l, err := s.tryReserve(ctx, rr)
		if err != nil {
			return err
		}
		leg = l
		return nil
	})
	if err != nil {
		return ReservationLeg{}, err
	}

	s.publishStock(ctx, rr.ProductID, rr.VariantID, rr.LocationID)
	return leg, nil
}

func (s *service) tryReserve(ctx context.Context, rr ReserveRequest) (ReservationLeg, error) {
	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return ReservationLeg{}, errors.WithStack(err)
	}

	defer func() {
		if err != nil {
			rollback(ctx, tx, err)
		}
	}()

	rec, err := s.repo.GetStockRecord(ctx, rr.ProductID, rr.VariantID, rr.LocationID, core.QueryOptions{Tx: tx})
	if err != nil {
		return ReservationLeg{}, errors.WithStack(err)
	}

	if rec.Available < rr.Quantity {
		err = ErrInsufficientStock
		return ReservationLeg{}, err
	}

	batches, err := s.repo.GetBatches(ctx, rr.ProductID, rr.VariantID, rr.LocationID, core.QueryOptions{Tx: tx})
	if err != nil {
		return ReservationLeg{}, errors.WithStack(err)
	}

	leg := ReservationLeg{LegID: uuid.NewString()}
	remaining := rr.Quantity

	for _, batch := range batches {
		if remaining == 0 {
			break
		}
		if batch.Remaining == 0 {
			continue
		}

		debit := remaining
		if debit > batch.Remaining {
			debit = batch.Remaining
		}
		batch.Remaining -= debit
		remaining -= debit

		if err = s.repo.UpdateBatch(ctx, batch, core.UpdateOptions{Tx: tx}); err != nil {
			return ReservationLeg{}, err
		}

		alloc := BatchAllocation{
			LegID:      leg.LegID,
			BatchID:    batch.BatchID,
			ProductID:  rr.ProductID,
			VariantID:  rr.VariantID,
			LocationID: rr.LocationID,
			Quantity:   debit,
			State:      LegReserved,
		}
		if err = s.repo.SaveAllocation(ctx, alloc, core.UpdateOptions{Tx: tx}); err != nil {
			return ReservationLeg{}, errors.WithStack(err)
		}
		leg.Allocations = append(leg.Allocations, alloc)
	}

	if remaining > 0 {
		err = ErrInsufficientStock
		return ReservationLeg{}, err
	}

	rec.Available -= rr.Quantity
	rec.Reserved += rr.Quantity
	rec.LastUpdated = time.Now()

	if err = s.repo.UpdateStockRecord(ctx, rec, core.UpdateOptions{Tx: tx}); err != nil {
		return ReservationLeg{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return ReservationLeg{}, errors.WithStack(err)
	}

	return leg, nil
}

// Release returns the leg's debits to batch remainders and to available. Already
// released or committed allocations are skipped, so releasing a leg twice is a
// no-op. The skip is decided again inside each transaction: two racing releases
// of the same leg credit availability exactly once.
func (s *service) Release(ctx context.Context, legID string) error {
	const funcName = "Release"

	log.Info().Str("func", funcName).Str("legId", legID).Msg("releasing stock leg")

	allocs, err := s.repo.GetAllocations(ctx, legID)
	if err != nil {
		return errors.WithStack(err)
	}

	for _, alloc := range allocs {
		if alloc.State != LegReserved {
			log.Debug().
				Str("func", funcName).
				Str("legId", legID).
				Str("batchId", alloc.BatchID).
				Str("state", string(alloc.State)).
				Msg("allocation not reserved, skipping")
			continue
		}

		alloc := alloc
		err = s.retry.Retry(ctx, func(ctx context.Context) error {
			return s.tryRelease(ctx, alloc)
		})
		if err != nil {
			return err
		}
		s.publishStock(ctx, alloc.ProductID, alloc.VariantID, alloc.LocationID)
	}

	return nil
}

func (s *service) tryRelease(ctx context.Context, alloc BatchAllocation) error {
	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	defer func() {
		if err != nil {
			rollback(ctx, tx, err)
		}
	}()

	// The state read before the transaction may be stale; only this one counts.
	cur, err := s.repo.GetAllocation(ctx, alloc.LegID, alloc.BatchID, core.QueryOptions{Tx: tx})
	if err != nil {
		return errors.WithStack(err)
	}
	if cur.State != LegReserved {
		return tx.Commit(ctx)
	}

	// Flip the state before crediting anything. The update is conditioned on the
	// allocation still being RESERVED, so of two racing releases only one gets
	// past this line; the loser retries, re-reads RELEASED, and no-ops.
	if err = s.repo.UpdateAllocationState(ctx, alloc.LegID, alloc.BatchID, LegReleased, core.UpdateOptions{Tx: tx}); err != nil {
		return errors.WithStack(err)
	}

	batch, err := s.repo.GetBatch(ctx, alloc.BatchID, core.QueryOptions{Tx: tx})
	if err != nil {
		return errors.WithStack(err)
	}

	batch.Remaining += alloc.Quantity
	if err = s.repo.UpdateBatch(ctx, batch, core.UpdateOptions{Tx: tx}); err != nil {
		return err
	}

	rec, err := s.repo.GetStockRecord(ctx, alloc.ProductID, alloc.VariantID, alloc.LocationID, core.QueryOptions{Tx: tx})
	if err != nil {
		return errors.WithStack(err)
	}

	rec.Available += alloc.Quantity
	rec.Reserved -= alloc.Quantity
	rec.LastUpdated = time.Now()
	if err = s.repo.UpdateStockRecord(ctx, rec, core.UpdateOptions{Tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// Commit converts the leg's reserved quantity into a permanent deduction from
// total. The batch remainders were already debited at reserve time. Irreversible.
func (s *service) Commit(ctx context.Context, legID string) error {
	const funcName = "Commit"

	log.Info().Str("func", funcName).Str("legId", legID).Msg("committing stock leg")

	allocs, err := s.repo.GetAllocations(ctx, legID)
	if err != nil {
		return errors.WithStack(err)
	}

	for _, alloc := range allocs {
		if alloc.State != LegReserved {
			log.Debug().
				Str("func", funcName).
				Str("legId", legID).
				Str("batchId", alloc.BatchID).
				Str("state", string(alloc.State)).
				Msg("allocation not reserved, skipping")
			continue
		}

		alloc := alloc
		err = s.retry.Retry(ctx, func(ctx context.Context) error {
			return s.tryCommit(ctx, alloc)
		})
		if err != nil {
			return err
		}
		s.publishStock(ctx, alloc.ProductID, alloc.VariantID, alloc.LocationID)
	}

	return nil
}

func (s *service) tryCommit(ctx context.Context, alloc BatchAllocation) error {
	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	defer func() {
		if err != nil {
			rollback(ctx, tx, err)
		}
	}()

	cur, err := s.repo.GetAllocation(ctx, alloc.LegID, alloc.BatchID, core.QueryOptions{Tx: tx})
	if err != nil {
		return errors.WithStack(err)
	}
	if cur.State != LegReserved {
		return tx.Commit(ctx)
	}

	if err = s.repo.UpdateAllocationState(ctx, alloc.LegID, alloc.BatchID, LegCommitted, core.UpdateOptions{Tx: tx}); err != nil {
		return errors.WithStack(err)
	}

	rec, err := s.repo.GetStockRecord(ctx, alloc.ProductID, alloc.VariantID, alloc.LocationID, core.QueryOptions{Tx: tx})
	if err != nil {
		return errors.WithStack(err)
	}

	rec.Reserved -= alloc.Quantity
	rec.Total -= alloc.Quantity
	rec.LastUpdated = time.Now()
	if err = s.repo.UpdateStockRecord(ctx, rec, core.UpdateOptions{Tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// AdjustForDamageOrExpiry is the warehouse write-off path. Not part of the
// reservation hot path.
func (s *service) AdjustForDamageOrExpiry(ctx context.Context, ar AdjustmentRequest) error {
	const funcName = "AdjustForDamageOrExpiry"

	log.Info().
		Str("func", funcName).
		Str("locationId", ar.LocationID).
		Str("batchId", ar.BatchID).
		Int64("quantity", ar.Quantity).
		Str("kind", string(ar.Kind)).
		Msg("adjusting stock")

	if ar.Quantity < 1 {
		return errors.New("quantity must be greater than zero")
	}
	if _, err := ParseAdjustmentKind(string(ar.Kind)); err != nil {
		return err
	}

	var adjusted StockRecord
	err := s.retry.Retry(ctx, func(ctx context.Context) error {
		rec, err := s.tryAdjust(ctx, ar)
		if err != nil {
			return err
		}
		adjusted = rec
		return nil
	})
	if err != nil {
		return err
	}

	s.publishStock(ctx, adjusted.ProductID, adjusted.VariantID, adjusted.LocationID)
	return nil
}

func (s *service) tryAdjust(ctx context.Context, ar AdjustmentRequest) (StockRecord, error) {
	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return StockRecord{}, errors.WithStack(err)
	}

	defer func() {
		if err != nil {
			rollback(ctx, tx, err)
		}
	}()

	batch, err := s.repo.GetBatch(ctx, ar.BatchID, core.QueryOptions{Tx: tx})
	if err != nil {
		return StockRecord{}, errors.WithStack(err)
	}

	if !ar.FromReserved {
		if batch.Remaining < ar.Quantity {
			err = errors.New("adjustment exceeds batch remainder")
			return StockRecord{}, err
		}
		batch.Remaining -= ar.Quantity
		if err = s.repo.UpdateBatch(ctx, batch, core.UpdateOptions{Tx: tx}); err != nil {
			return StockRecord{}, err
		}
	}

	rec, err := s.repo.GetStockRecord(ctx, batch.ProductID, batch.VariantID, ar.LocationID, core.QueryOptions{Tx: tx})
	if err != nil {
		return StockRecord{}, errors.WithStack(err)
	}

	if ar.FromReserved {
		if rec.Reserved < ar.Quantity {
			err = errors.New("adjustment exceeds reserved quantity")
			return StockRecord{}, err
		}
		rec.Reserved -= ar.Quantity
	} else {
		rec.Available -= ar.Quantity
	}
	if ar.Kind == AdjustDamaged {
		rec.Damaged += ar.Quantity
	} else {
		rec.Expired += ar.Quantity
	}
	rec.LastUpdated = time.Now()

	if err = s.repo.UpdateStockRecord(ctx, rec, core.UpdateOptions{Tx: tx}); err != nil {
		return StockRecord{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return StockRecord{}, errors.WithStack(err)
	}

	return rec, nil
}

func (s *service) GetStockRecord(ctx context.Context, productID, variantID, locationID string) (StockRecord, error) {
	rec, err := s.repo.GetStockRecord(ctx, productID, variantID, locationID)
	if err != nil {
		return rec, errors.WithStack(err)
	}
	return rec, nil
}

func (s *service) GetBatches(ctx context.Context, productID, variantID, locationID string) ([]Batch, error) {
	batches, err := s.repo.GetBatches(ctx, productID, variantID, locationID)
	if err != nil {
		return batches, errors.WithStack(err)
	}
	return batches, nil
}

func (s *service) SubscribeStock(ch chan<- StockRecord) (id StockSubscriptionID) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id = StockSubscriptionID(uuid.NewString())
	s.stockSubs[id] = ch
	log.Debug().Interface("clientId", id).Msg("subscribing to stock updates")
	return id
}

func (s *service) UnsubscribeStock(id StockSubscriptionID) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	log.Debug().Interface("clientId", id).Msg("unsubscribing from stock updates")
	if ch, ok := s.stockSubs[id]; ok {
		close(ch)
		delete(s.stockSubs, id)
	}
}

func (s *service) publishStock(ctx context.Context, productID, variantID, locationID string) {
	rec, err := s.repo.GetStockRecord(ctx, productID, variantID, locationID)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load stock record for publishing")
		return
	}
	if err := s.queue.PublishStock(ctx, rec); err != nil {
		log.Warn().Err(err).Msg("failed to publish stock update")
	}
	go s.notifyStockSubscribers(rec)
}

func (s *service) notifyStockSubscribers(rec StockRecord) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.stockSubs {
		log.Debug().Interface("clientId", id).Interface("stockRecord", rec).Msg("notifying subscriber of stock update")
		ch <- rec
	}
}
