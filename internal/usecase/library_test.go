package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LeitnerBot/internal/ports"
)

func newTestLibrary(ledger *memLedger, delivery *sentDelivery) *Library {
	return NewLibrary(LibraryDeps{Ledger: ledger, Delivery: delivery})
}

func TestAddItemReportsTotal(t *testing.T) {
	t.Parallel()

	lib := newTestLibrary(newMemLedger(), newSentDelivery())

	total, err := lib.AddItem(context.Background(), 1, 100, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	total, err = lib.AddItem(context.Background(), 1, 100, 11)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestAddItemIsIdempotent(t *testing.T) {
	t.Parallel()

	ledger := newMemLedger()
	lib := newTestLibrary(ledger, newSentDelivery())

	_, err := lib.AddItem(context.Background(), 1, 100, 10)
	require.NoError(t, err)

	total, err := lib.AddItem(context.Background(), 1, 100, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestAddItemStoreFailureSurfaces(t *testing.T) {
	t.Parallel()

	ledger := newMemLedger()
	ledger.addErr = errors.New("connection refused")
	lib := newTestLibrary(ledger, newSentDelivery())

	_, err := lib.AddItem(context.Background(), 1, 100, 10)
	assert.Error(t, err)
}

func TestSendBoxOnlySendsThatBox(t *testing.T) {
	t.Parallel()

	ledger := newMemLedger()
	seed(ledger, 1, 100, map[int64]int{10: 1, 11: 2, 12: 2, 13: 3})

	delivery := newSentDelivery()
	sent, err := newTestLibrary(ledger, delivery).SendBox(context.Background(), 1, 100, 2)

	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	require.Len(t, delivery.copies, 2)
	assert.Equal(t, int64(11), delivery.copies[0].Item.ID)
	assert.Equal(t, int64(12), delivery.copies[1].Item.ID)
	assert.Len(t, delivery.copies[0].Controls, 3)
}

func TestSendBoxSkipsGoneContent(t *testing.T) {
	t.Parallel()

	ledger := newMemLedger()
	seed(ledger, 1, 100, map[int64]int{10: 1, 11: 1})

	delivery := newSentDelivery()
	delivery.failItems[10] = ports.ErrContentGone

	sent, err := newTestLibrary(ledger, delivery).SendBox(context.Background(), 1, 100, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestForwardAllKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	ledger := newMemLedger()
	for _, id := range []int64{30, 10, 20} {
		require.NoError(t, ledger.Add(context.Background(), 1, 100, id))
	}

	delivery := newSentDelivery()
	sent, err := newTestLibrary(ledger, delivery).ForwardAll(context.Background(), 1, 500)

	require.NoError(t, err)
	assert.Equal(t, 3, sent)
	require.Len(t, delivery.forwards, 3)
	assert.Equal(t, int64(30), delivery.forwards[0].Item.ID)
	assert.Equal(t, int64(10), delivery.forwards[1].Item.ID)
	assert.Equal(t, int64(20), delivery.forwards[2].Item.ID)
	assert.Equal(t, int64(500), delivery.forwards[0].Dest)
}
