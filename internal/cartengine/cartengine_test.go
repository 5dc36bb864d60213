package cartengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmatiushkin73/my-kiosk-backend/internal/domain/model"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/eventbus"
	"github.com/dmatiushkin73/my-kiosk-backend/internal/platform/logger"
)

type fakeDispenser struct {
	accept bool
	started []int
}

func (d *fakeDispenser) StartDispensing(cartID int, reservations []*model.Reservation) bool {
	if d.accept {
		d.started = append(d.started, cartID)
	}
	return d.accept
}

func newTestEngine(t *testing.T) (*Engine, *fakeRepo) {
	t.Helper()
	log, err := logger.New(false)
	require.NoError(t, err)
	repo := newFakeRepo()
	e := &Engine{
		log:       log.Named("test"),
		bus:       eventbus.New(log),
		repo:      repo,
		dispenser: &fakeDispenser{accept: true},
		cfg: Config{
			ExpirationTimeout: 0, PrereservationTimeout: 0, ReservationTimeout: 0, OrderHistoryTimeout: 0,
		},
	}
	return e, repo
}

func seedSlot(repo *fakeRepo, unit, tray, loc, variantID, qty int) {
	repo.slots = append(repo.slots, &model.InventorySlot{
		Key:       model.SlotKey{UnitID: unit, TrayNumber: tray, Location: loc},
		VariantID: variantID,
		Width:     1, Depth: 1,
		Quantity: qty,
	})
}

func TestDoReservation_SingleSlotHasEnoughStock(t *testing.T) {
	e, repo := newTestEngine(t)
	seedSlot(repo, 1, 1, 1, 42, 10)

	ok := e.doReservation(context.Background(), 1, 42, 3)
	assert.True(t, ok)

	reservations, _ := repo.ListAllReservations(context.Background())
	require.Len(t, reservations, 1)
	assert.Equal(t, 3, reservations[0].Quantity)
	assert.Equal(t, 1, reservations[0].UnitID)
	assert.Equal(t, 1, reservations[0].Location)
}

func TestDoReservation_SpansMultipleSlotsInStorageOrder(t *testing.T) {
	e, repo := newTestEngine(t)
	seedSlot(repo, 1, 1, 1, 42, 2)
	seedSlot(repo, 1, 1, 2, 42, 5)

	ok := e.doReservation(context.Background(), 1, 42, 4)
	assert.True(t, ok)

	reservations, _ := repo.ListAllReservations(context.Background())
	require.Len(t, reservations, 2)
	var total int
	for _, r := range reservations {
		total += r.Quantity
	}
	assert.Equal(t, 4, total)
}

func TestDoReservation_InsufficientStockFails(t *testing.T) {
	e, repo := newTestEngine(t)
	seedSlot(repo, 1, 1, 1, 42, 2)

	ok := e.doReservation(context.Background(), 1, 42, 5)
	assert.False(t, ok)

	reservations, _ := repo.ListAllReservations(context.Background())
	assert.Empty(t, reservations)
}

func TestDoReservation_AccountsForExistingReservationsFromOtherCarts(t *testing.T) {
	e, repo := newTestEngine(t)
	seedSlot(repo, 1, 1, 1, 42, 5)
	require.NoError(t, repo.PutReservation(context.Background(), &model.Reservation{
		CartID: 99, VariantID: 42, UnitID: 1, Location: 1, Quantity: 4,
	}))

	ok := e.doReservation(context.Background(), 1, 42, 2)
	assert.False(t, ok)
}

func TestCancelReservation_ExactMatchRemoves(t *testing.T) {
	e, repo := newTestEngine(t)
	require.NoError(t, repo.PutReservation(context.Background(), &model.Reservation{
		CartID: 1, VariantID: 42, UnitID: 1, Location: 1, Quantity: 3,
	}))

	e.cancelReservation(context.Background(), 1, 42, 3)

	reservations, _ := repo.ListReservations(context.Background(), 1)
	assert.Empty(t, reservations)
}

func TestCancelReservation_PartialShrinks(t *testing.T) {
	e, repo := newTestEngine(t)
	require.NoError(t, repo.PutReservation(context.Background(), &model.Reservation{
		CartID: 1, VariantID: 42, UnitID: 1, Location: 1, Quantity: 5,
	}))

	e.cancelReservation(context.Background(), 1, 42, 2)

	reservations, _ := repo.ListReservations(context.Background(), 1)
	require.Len(t, reservations, 1)
	assert.Equal(t, 3, reservations[0].Quantity)
}

func TestCancelReservation_SpansMultipleReservations(t *testing.T) {
	e, repo := newTestEngine(t)
	require.NoError(t, repo.PutReservation(context.Background(), &model.Reservation{
		CartID: 1, VariantID: 42, UnitID: 1, Location: 1, Quantity: 2,
	}))
	require.NoError(t, repo.PutReservation(context.Background(), &model.Reservation{
		CartID: 1, VariantID: 42, UnitID: 1, Location: 2, Quantity: 5,
	}))

	e.cancelReservation(context.Background(), 1, 42, 4)

	reservations, _ := repo.ListReservations(context.Background(), 1)
	var total int
	for _, r := range reservations {
		total += r.Quantity
	}
	assert.Equal(t, 3, total)
}

func TestDoUpdate_AddingToNewCartCreatesCartAndItem(t *testing.T) {
	e, repo := newTestEngine(t)
	seedSlot(repo, 1, 1, 1, 42, 10)

	res, _ := e.doUpdate(context.Background(), "txn-1", 1, model.CartTypeLocal, 42, 2)
	assert.Equal(t, model.ResultOK, res)

	cart, err := repo.GetCartByTransactionID(context.Background(), "txn-1")
	require.NoError(t, err)
	items, _ := repo.ListCartItems(context.Background(), cart.ID)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Amount)
}

func TestDoUpdate_InsufficientStockReturnsNOK(t *testing.T) {
	e, repo := newTestEngine(t)
	seedSlot(repo, 1, 1, 1, 42, 1)

	res, _ := e.doUpdate(context.Background(), "txn-2", 1, model.CartTypeLocal, 42, 5)
	assert.Equal(t, model.ResultNOK, res)
}

func TestDoUpdate_RemovingMoreThanReservedIsError(t *testing.T) {
	e, repo := newTestEngine(t)
	seedSlot(repo, 1, 1, 1, 42, 10)
	_, _ = e.doUpdate(context.Background(), "txn-3", 1, model.CartTypeLocal, 42, 2)

	res, _ := e.doUpdate(context.Background(), "txn-3", 1, model.CartTypeLocal, 42, -5)
	assert.Equal(t, model.ResultError, res)
}

func TestDoUpdate_ZeroAmountIsError(t *testing.T) {
	e, _ := newTestEngine(t)
	res, _ := e.doUpdate(context.Background(), "txn-4", 1, model.CartTypeLocal, 42, 0)
	assert.Equal(t, model.ResultError, res)
}

func TestDoDispense_EmptyCartIsError(t *testing.T) {
	e, repo := newTestEngine(t)
	require.NoError(t, repo.PutCart(context.Background(), &model.Cart{TransactionID: "txn-5", Type: model.CartTypeLocal}))

	res, _ := e.doDispense(context.Background(), "txn-5", 1)
	assert.Equal(t, model.ResultError, res)
}

func TestDoDispense_AcceptedByOrchestratorMovesCartToDispensing(t *testing.T) {
	e, repo := newTestEngine(t)
	seedSlot(repo, 1, 1, 1, 42, 10)
	_, _ = e.doUpdate(context.Background(), "txn-6", 1, model.CartTypeLocal, 42, 2)

	res, _ := e.doDispense(context.Background(), "txn-6", 1)
	assert.Equal(t, model.ResultOK, res)

	cart, err := repo.GetCartByTransactionID(context.Background(), "txn-6")
	require.NoError(t, err)
	assert.Equal(t, model.CartStatusDispensing, cart.Status)
}

func TestDoDispense_RejectedByOrchestratorQueuesCart(t *testing.T) {
	e, repo := newTestEngine(t)
	e.dispenser = &fakeDispenser{accept: false}
	seedSlot(repo, 1, 1, 1, 42, 10)
	_, _ = e.doUpdate(context.Background(), "txn-7", 1, model.CartTypeLocal, 42, 2)

	res, _ := e.doDispense(context.Background(), "txn-7", 1)
	assert.Equal(t, model.ResultPending, res)
	assert.Len(t, e.pendingDispensing, 1)
}
