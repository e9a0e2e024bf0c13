package reservation_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sksmith/reservation-engine/core"
	"github.com/sksmith/reservation-engine/core/catalog"
	"github.com/sksmith/reservation-engine/core/reservation"
	"github.com/sksmith/reservation-engine/core/slot"
	"github.com/sksmith/reservation-engine/core/stock"
	"github.com/sksmith/reservation-engine/db/resrepo"
	"github.com/sksmith/reservation-engine/queue"
	"github.com/sksmith/reservation-engine/test"
)

func TestMain(m *testing.M) {
	test.ConfigLogging()
	os.Exit(m.Run())
}

func twoLineRequest() reservation.CreateReservationRequest {
	return reservation.CreateReservationRequest{
		ReservationID: "res1",
		OrderID:       "ord1",
		Lines: []reservation.Line{
			{ProductID: "MILK-1L", VariantID: "FULL", LocationID: "HYD-01", Quantity: 2},
			{ProductID: "BREAD", VariantID: "WHEAT", LocationID: "HYD-01", Quantity: 3},
		},
		Pincode: "500086",
		SlotID:  "MORNING_1",
		Date:    "2026-08-03",
	}
}

func TestCreateReservation(t *testing.T) {
	tests := []struct {
		name string

		request reservation.CreateReservationRequest

		getReservationFunc func(ctx context.Context, reservationID string, options ...core.QueryOptions) (reservation.Reservation, error)
		reserveFunc        func(call int) (stock.ReservationLeg, error)
		reserveSlotFunc    func(ctx context.Context, pincode, slotID, date string, weight float64) (slot.SlotLeg, error)
		releaseFunc        func(ctx context.Context, legID string) error

		wantState         reservation.State
		wantWeight        float64
		wantReason        string
		wantReserveCnt    int
		wantReleasedLegs  []string
		wantQueueCallCnt  map[string]int
		wantErr           error
		wantCompensation  bool
		wantStateSkipSave bool
	}{
		{
			name:    "both legs succeed and the reservation confirms",
			request: twoLineRequest(),

			wantState:        reservation.Confirmed,
			wantWeight:       10,
			wantReserveCnt:   2,
			wantReleasedLegs: []string{},
			wantQueueCallCnt: map[string]int{"PublishReservation": 1},
		},
		{
			name:    "same reservation id returns the stored outcome",
			request: twoLineRequest(),

			getReservationFunc: func(ctx context.Context, reservationID string, options ...core.QueryOptions) (reservation.Reservation, error) {
				return reservation.Reservation{ReservationID: reservationID, State: reservation.Confirmed}, nil
			},

			wantState:         reservation.Confirmed,
			wantReserveCnt:    0,
			wantReleasedLegs:  []string{},
			wantQueueCallCnt:  map[string]int{"PublishReservation": 0},
			wantStateSkipSave: true,
		},
		{
			name:    "insufficient stock on the second line compensates the first",
			request: twoLineRequest(),

			reserveFunc: func(call int) (stock.ReservationLeg, error) {
				if call == 1 {
					return stock.ReservationLeg{}, stock.ErrInsufficientStock
				}
				return stock.ReservationLeg{LegID: fmt.Sprintf("stockleg-%d", call)}, nil
			},

			wantState:        reservation.Released,
			wantReason:       "InsufficientStock",
			wantReserveCnt:   2,
			wantReleasedLegs: []string{"stockleg-0"},
			wantQueueCallCnt: map[string]int{"PublishReservation": 1},
			wantErr:          stock.ErrInsufficientStock,
		},
		{
			name:    "full slot compensates stock legs in reverse order",
			request: twoLineRequest(),

			reserveSlotFunc: func(ctx context.Context, pincode, slotID, date string, weight float64) (slot.SlotLeg, error) {
				return slot.SlotLeg{}, slot.ErrSlotFull
			},

			wantState:        reservation.Released,
			wantReason:       "SlotFull",
			wantReserveCnt:   2,
			wantReleasedLegs: []string{"stockleg-1", "stockleg-0"},
			wantQueueCallCnt: map[string]int{"PublishReservation": 1},
			wantErr:          slot.ErrSlotFull,
		},
		{
			name:    "slot weight decline carries its reason",
			request: twoLineRequest(),

			reserveSlotFunc: func(ctx context.Context, pincode, slotID, date string, weight float64) (slot.SlotLeg, error) {
				return slot.SlotLeg{}, slot.ErrSlotWeightExceeded
			},

			wantState:        reservation.Released,
			wantReason:       "SlotWeightExceeded",
			wantReserveCnt:   2,
			wantReleasedLegs: []string{"stockleg-1", "stockleg-0"},
			wantQueueCallCnt: map[string]int{"PublishReservation": 1},
			wantErr:          slot.ErrSlotWeightExceeded,
		},
		{
			name:    "failed compensation is surfaced, not swallowed",
			request: twoLineRequest(),

			reserveSlotFunc: func(ctx context.Context, pincode, slotID, date string, weight float64) (slot.SlotLeg, error) {
				return slot.SlotLeg{}, slot.ErrSlotFull
			},
			releaseFunc: func(ctx context.Context, legID string) error {
				return errors.New("database unreachable")
			},

			wantState:        reservation.Pending,
			wantReserveCnt:   2,
			wantReleasedLegs: []string{},
			wantQueueCallCnt: map[string]int{"PublishReservation": 0},
			wantCompensation: true,
		},
		{
			name: "reservation id is required",
			request: reservation.CreateReservationRequest{
				Lines: []reservation.Line{{ProductID: "MILK-1L", VariantID: "FULL", LocationID: "HYD-01", Quantity: 1}},
			},

			wantReserveCnt:    0,
			wantReleasedLegs:  []string{},
			wantQueueCallCnt:  map[string]int{"PublishReservation": 0},
			wantErr:           errors.New("reservation id is required"),
			wantStateSkipSave: true,
		},
		{
			name: "at least one line is required",
			request: reservation.CreateReservationRequest{
				ReservationID: "res1",
			},

			wantReserveCnt:    0,
			wantReleasedLegs:  []string{},
			wantQueueCallCnt:  map[string]int{"PublishReservation": 0},
			wantErr:           errors.New("at least one line is required"),
			wantStateSkipSave: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var saved reservation.Reservation
			savedCnt := 0
			releasedLegs := []string{}
			reserveCnt := 0

			mockRepo := resrepo.NewMockRepo()
			if tc.getReservationFunc != nil {
				mockRepo.GetReservationFunc = tc.getReservationFunc
			}
			mockRepo.CreateReservationFunc = func(ctx context.Context, res *reservation.Reservation, options ...core.UpdateOptions) error {
				saved = *res
				savedCnt++
				return nil
			}
			mockRepo.SaveReservationFunc = func(ctx context.Context, res *reservation.Reservation, options ...core.UpdateOptions) error {
				saved = *res
				savedCnt++
				return nil
			}
			mockRepo.UpdateReservationStateFunc = func(ctx context.Context, reservationID string, state reservation.State, declineReason string, options ...core.UpdateOptions) error {
				saved.State = state
				saved.DeclineReason = declineReason
				return nil
			}

			mockStock := stock.NewMockStockService()
			mockStock.ReserveFunc = func(ctx context.Context, rr stock.ReserveRequest) (stock.ReservationLeg, error) {
				call := reserveCnt
				reserveCnt++
				if tc.reserveFunc != nil {
					return tc.reserveFunc(call)
				}
				return stock.ReservationLeg{LegID: fmt.Sprintf("stockleg-%d", call)}, nil
			}
			mockStock.ReleaseFunc = func(ctx context.Context, legID string) error {
				if tc.releaseFunc != nil {
					if err := tc.releaseFunc(ctx, legID); err != nil {
						return err
					}
				}
				releasedLegs = append(releasedLegs, legID)
				return nil
			}

			mockSlot := slot.NewMockSlotService()
			if tc.reserveSlotFunc != nil {
				mockSlot.ReserveSlotFunc = tc.reserveSlotFunc
			} else {
				mockSlot.ReserveSlotFunc = func(ctx context.Context, pincode, slotID, date string, weight float64) (slot.SlotLeg, error) {
					return slot.SlotLeg{LegID: "slotleg-1", Pincode: pincode, SlotID: slotID, Date: date, Weight: weight, State: slot.LegReserved}, nil
				}
			}

			mockCatalog := catalog.NewMockCatalogService()
			mockCatalog.GetUnitWeightFunc = func(ctx context.Context, productID, variantID string) (float64, error) {
				return 2, nil
			}

			mockQueue := queue.NewMockQueue()

			service := reservation.NewService(mockRepo, &mockStock, &mockSlot, &mockCatalog, mockQueue, 30*time.Minute)

			res, err := service.CreateReservation(context.Background(), tc.request)

			if tc.wantCompensation {
				var cerr *reservation.CompensationError
				if !errors.As(err, &cerr) {
					t.Fatalf("expected compensation error, got=%v", err)
				}
			} else if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("did not want error, got=%v", err)
				}
			} else {
				if err == nil {
					t.Fatalf("expected error, got none")
				}
				if errors.Is(tc.wantErr, stock.ErrInsufficientStock) ||
					errors.Is(tc.wantErr, slot.ErrSlotFull) ||
					errors.Is(tc.wantErr, slot.ErrSlotWeightExceeded) {
					if !errors.Is(err, tc.wantErr) {
						t.Errorf("unexpected error got=%v want=%v", err, tc.wantErr)
					}
				}
			}

			if reserveCnt != tc.wantReserveCnt {
				t.Errorf("unexpected stock reserve count got=%d want=%d", reserveCnt, tc.wantReserveCnt)
			}
			if len(releasedLegs) != len(tc.wantReleasedLegs) {
				t.Errorf("unexpected released legs got=%v want=%v", releasedLegs, tc.wantReleasedLegs)
			} else {
				for i := range tc.wantReleasedLegs {
					if releasedLegs[i] != tc.wantReleasedLegs[i] {
						t.Errorf("unexpected release order got=%v want=%v", releasedLegs, tc.wantReleasedLegs)
						break
					}
				}
			}

			if !tc.wantStateSkipSave {
				if saved.State != tc.wantState {
					t.Errorf("unexpected stored state got=%s want=%s", saved.State, tc.wantState)
				}
				if saved.DeclineReason != tc.wantReason {
					t.Errorf("unexpected decline reason got=%s want=%s", saved.DeclineReason, tc.wantReason)
				}
			}

			if err == nil && !tc.wantStateSkipSave {
				if res.State != reservation.Confirmed {
					t.Errorf("unexpected returned state got=%s", res.State)
				}
				if res.Weight != tc.wantWeight {
					t.Errorf("unexpected weight got=%v want=%v", res.Weight, tc.wantWeight)
				}
				if res.SlotLegID == "" {
					t.Error("expected a slot leg id")
				}
				if res.ExpiresAt.Before(res.Created) {
					t.Error("expiry must be after creation")
				}
				for i, line := range res.Lines {
					if line.StockLegID != fmt.Sprintf("stockleg-%d", i) {
						t.Errorf("unexpected stock leg on line %d: %s", i, line.StockLegID)
					}
				}
			}

			for f, c := range tc.wantQueueCallCnt {
				mockQueue.VerifyCount(f, c, t)
			}
		})
	}
}

// Two concurrent requests carrying the same reservation id must take each leg
// exactly once between them, even when both pass the existence check before
// either has persisted anything.
func TestCreateReservationConcurrentSameID(t *testing.T) {
	var (
		mu     sync.Mutex
		stored *reservation.Reservation
		checks int
	)

	var barrier sync.WaitGroup
	barrier.Add(2)

	mockRepo := resrepo.NewMockRepo()
	mockRepo.GetReservationFunc = func(ctx context.Context, reservationID string, options ...core.QueryOptions) (reservation.Reservation, error) {
		mu.Lock()
		first := checks < 2
		checks++
		res := stored
		mu.Unlock()

		if first {
			// Hold both requests at the existence check so neither sees the other.
			barrier.Done()
			barrier.Wait()
			return reservation.Reservation{}, core.ErrNotFound
		}
		if res == nil {
			return reservation.Reservation{}, core.ErrNotFound
		}
		return *res, nil
	}
	mockRepo.CreateReservationFunc = func(ctx context.Context, res *reservation.Reservation, options ...core.UpdateOptions) error {
		mu.Lock()
		defer mu.Unlock()
		if stored != nil {
			return core.ErrConflict
		}
		r := *res
		stored = &r
		return nil
	}
	mockRepo.SaveReservationFunc = func(ctx context.Context, res *reservation.Reservation, options ...core.UpdateOptions) error {
		mu.Lock()
		defer mu.Unlock()
		r := *res
		stored = &r
		return nil
	}

	stockReserves := 0
	mockStock := stock.NewMockStockService()
	mockStock.ReserveFunc = func(ctx context.Context, rr stock.ReserveRequest) (stock.ReservationLeg, error) {
		mu.Lock()
		defer mu.Unlock()
		stockReserves++
		return stock.ReservationLeg{LegID: fmt.Sprintf("stockleg-%d", stockReserves)}, nil
	}

	slotReserves := 0
	mockSlot := slot.NewMockSlotService()
	mockSlot.ReserveSlotFunc = func(ctx context.Context, pincode, slotID, date string, weight float64) (slot.SlotLeg, error) {
		mu.Lock()
		defer mu.Unlock()
		slotReserves++
		return slot.SlotLeg{LegID: "slotleg-1", State: slot.LegReserved}, nil
	}

	mockCatalog := catalog.NewMockCatalogService()
	mockCatalog.GetUnitWeightFunc = func(ctx context.Context, productID, variantID string) (float64, error) {
		return 2, nil
	}

	service := reservation.NewService(mockRepo, &mockStock, &mockSlot, &mockCatalog, queue.NewMockQueue(), 30*time.Minute)

	req := reservation.CreateReservationRequest{
		ReservationID: "res1",
		OrderID:       "ord1",
		Lines:         []reservation.Line{{ProductID: "MILK-1L", VariantID: "FULL", LocationID: "HYD-01", Quantity: 2}},
		Pincode:       "500086",
		SlotID:        "MORNING_1",
		Date:          "2026-08-03",
	}

	type outcome struct {
		res reservation.Reservation
		err error
	}
	outcomes := make(chan outcome, 2)
	for i := 0; i < 2; i++ {
		go func() {
			res, err := service.CreateReservation(context.Background(), req)
			outcomes <- outcome{res: res, err: err}
		}()
	}
	for i := 0; i < 2; i++ {
		o := <-outcomes
		if o.err != nil {
			t.Errorf("did not want error, got=%v", o.err)
		}
		if o.res.ReservationID != "res1" {
			t.Errorf("unexpected reservation id %q", o.res.ReservationID)
		}
	}

	if stockReserves != 1 {
		t.Errorf("unexpected stock reserve count got=%d want=1", stockReserves)
	}
	if slotReserves != 1 {
		t.Errorf("unexpected slot reserve count got=%d want=1", slotReserves)
	}
}

func TestReleaseReservation(t *testing.T) {
	confirmed := reservation.Reservation{
		ReservationID: "res1",
		Lines: []reservation.Line{
			{ProductID: "MILK-1L", Quantity: 2, StockLegID: "stockleg-0"},
			{ProductID: "BREAD", Quantity: 3, StockLegID: "stockleg-1"},
		},
		SlotLegID: "slotleg-1",
		State:     reservation.Confirmed,
	}

	t.Run("slot leg is released before stock legs in reverse order", func(t *testing.T) {
		var order []string

		mockRepo := resrepo.NewMockRepo()
		mockRepo.GetReservationFunc = func(ctx context.Context, reservationID string, options ...core.QueryOptions) (reservation.Reservation, error) {
			return confirmed, nil
		}
		var finalState reservation.State
		mockRepo.UpdateReservationStateFunc = func(ctx context.Context, reservationID string, state reservation.State, declineReason string, options ...core.UpdateOptions) error {
			finalState = state
			return nil
		}

		mockStock := stock.NewMockStockService()
		mockStock.ReleaseFunc = func(ctx context.Context, legID string) error {
			order = append(order, legID)
			return nil
		}

		mockSlot := slot.NewMockSlotService()
		mockSlot.ReleaseSlotFunc = func(ctx context.Context, legID string) error {
			order = append(order, legID)
			return nil
		}

		mockCatalog := catalog.NewMockCatalogService()
		mockQueue := queue.NewMockQueue()

		service := reservation.NewService(mockRepo, &mockStock, &mockSlot, &mockCatalog, mockQueue, 30*time.Minute)

		res, err := service.ReleaseReservation(context.Background(), "res1")
		if err != nil {
			t.Fatalf("did not want error, got=%v", err)
		}

		want := []string{"slotleg-1", "stockleg-1", "stockleg-0"}
		if len(order) != len(want) {
			t.Fatalf("unexpected release order got=%v want=%v", order, want)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Fatalf("unexpected release order got=%v want=%v", order, want)
			}
		}

		if res.State != reservation.Released || finalState != reservation.Released {
			t.Errorf("unexpected state returned=%s stored=%s", res.State, finalState)
		}
		mockQueue.VerifyCount("PublishReservation", 1, t)
	})

	t.Run("terminal reservations are left untouched", func(t *testing.T) {
		released := 0

		mockRepo := resrepo.NewMockRepo()
		mockRepo.GetReservationFunc = func(ctx context.Context, reservationID string, options ...core.QueryOptions) (reservation.Reservation, error) {
			return reservation.Reservation{ReservationID: reservationID, State: reservation.Committed}, nil
		}

		mockStock := stock.NewMockStockService()
		mockStock.ReleaseFunc = func(ctx context.Context, legID string) error {
			released++
			return nil
		}

		mockSlot := slot.NewMockSlotService()
		mockCatalog := catalog.NewMockCatalogService()
		mockQueue := queue.NewMockQueue()

		service := reservation.NewService(mockRepo, &mockStock, &mockSlot, &mockCatalog, mockQueue, 30*time.Minute)

		res, err := service.ReleaseReservation(context.Background(), "res1")
		if err != nil {
			t.Fatalf("did not want error, got=%v", err)
		}
		if res.State != reservation.Committed {
			t.Errorf("unexpected state got=%s", res.State)
		}
		if released != 0 {
			t.Errorf("terminal reservation must not release legs, released=%d", released)
		}
		mockQueue.VerifyCount("PublishReservation", 0, t)
	})

	t.Run("failed slot release stops the cascade", func(t *testing.T) {
		released := 0

		mockRepo := resrepo.NewMockRepo()
		mockRepo.GetReservationFunc = func(ctx context.Context, reservationID string, options ...core.QueryOptions) (reservation.Reservation, error) {
			return confirmed, nil
		}
		stateUpdates := 0
		mockRepo.UpdateReservationStateFunc = func(ctx context.Context, reservationID string, state reservation.State, declineReason string, options ...core.UpdateOptions) error {
			stateUpdates++
			return nil
		}

		mockStock := stock.NewMockStockService()
		mockStock.ReleaseFunc = func(ctx context.Context, legID string) error {
			released++
			return nil
		}

		mockSlot := slot.NewMockSlotService()
		mockSlot.ReleaseSlotFunc = func(ctx context.Context, legID string) error {
			return errors.New("database unreachable")
		}

		mockCatalog := catalog.NewMockCatalogService()
		mockQueue := queue.NewMockQueue()

		service := reservation.NewService(mockRepo, &mockStock, &mockSlot, &mockCatalog, mockQueue, 30*time.Minute)

		_, err := service.ReleaseReservation(context.Background(), "res1")
		var cerr *reservation.CompensationError
		if !errors.As(err, &cerr) {
			t.Fatalf("expected compensation error, got=%v", err)
		}
		if released != 0 {
			t.Errorf("stock legs must not release after a failed slot release, released=%d", released)
		}
		if stateUpdates != 0 {
			t.Errorf("reservation must stay reclaimable, state updates=%d", stateUpdates)
		}
	})

	t.Run("losing the state update returns the stored outcome", func(t *testing.T) {
		gets := 0

		mockRepo := resrepo.NewMockRepo()
		mockRepo.GetReservationFunc = func(ctx context.Context, reservationID string, options ...core.QueryOptions) (reservation.Reservation, error) {
			gets++
			if gets == 1 {
				return confirmed, nil
			}
			return reservation.Reservation{ReservationID: reservationID, State: reservation.Committed}, nil
		}
		mockRepo.UpdateReservationStateFunc = func(ctx context.Context, reservationID string, state reservation.State, declineReason string, options ...core.UpdateOptions) error {
			return core.ErrConflict
		}

		mockStock := stock.NewMockStockService()
		mockSlot := slot.NewMockSlotService()
		mockCatalog := catalog.NewMockCatalogService()
		mockQueue := queue.NewMockQueue()

		service := reservation.NewService(mockRepo, &mockStock, &mockSlot, &mockCatalog, mockQueue, 30*time.Minute)

		res, err := service.ReleaseReservation(context.Background(), "res1")
		if err != nil {
			t.Fatalf("did not want error, got=%v", err)
		}
		if res.State != reservation.Committed {
			t.Errorf("unexpected state got=%s want=%s", res.State, reservation.Committed)
		}
		mockQueue.VerifyCount("PublishReservation", 0, t)
	})

	t.Run("unknown reservation", func(t *testing.T) {
		mockRepo := resrepo.NewMockRepo()
		mockStock := stock.NewMockStockService()
		mockSlot := slot.NewMockSlotService()
		mockCatalog := catalog.NewMockCatalogService()

		service := reservation.NewService(mockRepo, &mockStock, &mockSlot, &mockCatalog, queue.NewMockQueue(), 30*time.Minute)

		_, err := service.ReleaseReservation(context.Background(), "nope")
		if !errors.Is(err, core.ErrNotFound) {
			t.Errorf("unexpected error got=%v want=%v", err, core.ErrNotFound)
		}
	})
}

func TestCommitReservation(t *testing.T) {
	confirmed := reservation.Reservation{
		ReservationID: "res1",
		Lines: []reservation.Line{
			{ProductID: "MILK-1L", Quantity: 2, StockLegID: "stockleg-0"},
			{ProductID: "BREAD", Quantity: 3, StockLegID: "stockleg-1"},
		},
		SlotLegID: "slotleg-1",
		State:     reservation.Confirmed,
	}

	t.Run("confirmed reservation commits every stock leg", func(t *testing.T) {
		var committed []string
		slotReleases := 0

		mockRepo := resrepo.NewMockRepo()
		mockRepo.GetReservationFunc = func(ctx context.Context, reservationID string, options ...core.QueryOptions) (reservation.Reservation, error) {
			return confirmed, nil
		}
		var finalState reservation.State
		mockRepo.UpdateReservationStateFunc = func(ctx context.Context, reservationID string, state reservation.State, declineReason string, options ...core.UpdateOptions) error {
			finalState = state
			return nil
		}

		mockStock := stock.NewMockStockService()
		mockStock.CommitFunc = func(ctx context.Context, legID string) error {
			committed = append(committed, legID)
			return nil
		}

		mockSlot := slot.NewMockSlotService()
		mockSlot.ReleaseSlotFunc = func(ctx context.Context, legID string) error {
			slotReleases++
			return nil
		}

		mockCatalog := catalog.NewMockCatalogService()
		mockQueue := queue.NewMockQueue()

		service := reservation.NewService(mockRepo, &mockStock, &mockSlot, &mockCatalog, mockQueue, 30*time.Minute)

		res, err := service.CommitReservation(context.Background(), "res1")
		if err != nil {
			t.Fatalf("did not want error, got=%v", err)
		}

		if len(committed) != 2 {
			t.Errorf("unexpected committed legs %v", committed)
		}
		if slotReleases != 0 {
			t.Errorf("slot capacity must not be returned on commit, releases=%d", slotReleases)
		}
		if res.State != reservation.Committed || finalState != reservation.Committed {
			t.Errorf("unexpected state returned=%s stored=%s", res.State, finalState)
		}
		mockQueue.VerifyCount("PublishReservation", 1, t)
	})

	t.Run("pending reservation cannot commit", func(t *testing.T) {
		mockRepo := resrepo.NewMockRepo()
		mockRepo.GetReservationFunc = func(ctx context.Context, reservationID string, options ...core.QueryOptions) (reservation.Reservation, error) {
			return reservation.Reservation{ReservationID: reservationID, State: reservation.Pending}, nil
		}

		mockStock := stock.NewMockStockService()
		mockSlot := slot.NewMockSlotService()
		mockCatalog := catalog.NewMockCatalogService()

		service := reservation.NewService(mockRepo, &mockStock, &mockSlot, &mockCatalog, queue.NewMockQueue(), 30*time.Minute)

		if _, err := service.CommitReservation(context.Background(), "res1"); err == nil {
			t.Error("expected error, got none")
		}
	})

	t.Run("committing twice is a no-op", func(t *testing.T) {
		commits := 0

		mockRepo := resrepo.NewMockRepo()
		mockRepo.GetReservationFunc = func(ctx context.Context, reservationID string, options ...core.QueryOptions) (reservation.Reservation, error) {
			return reservation.Reservation{ReservationID: reservationID, State: reservation.Committed}, nil
		}

		mockStock := stock.NewMockStockService()
		mockStock.CommitFunc = func(ctx context.Context, legID string) error {
			commits++
			return nil
		}

		mockSlot := slot.NewMockSlotService()
		mockCatalog := catalog.NewMockCatalogService()

		service := reservation.NewService(mockRepo, &mockStock, &mockSlot, &mockCatalog, queue.NewMockQueue(), 30*time.Minute)

		res, err := service.CommitReservation(context.Background(), "res1")
		if err != nil {
			t.Fatalf("did not want error, got=%v", err)
		}
		if res.State != reservation.Committed || commits != 0 {
			t.Errorf("unexpected outcome state=%s commits=%d", res.State, commits)
		}
	})
}
