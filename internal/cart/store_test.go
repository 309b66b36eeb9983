package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadlane/storefront-go/pkg/localstore"
	"github.com/threadlane/storefront-go/pkg/types"
)

func snapshot(id, price string) types.ProductSnapshot {
	return types.ProductSnapshot{
		ID:    id,
		Name:  "product " + id,
		Price: decimal.RequireFromString(price),
	}
}

func newTestStore() (*Store, *localstore.MemStore) {
	storage := localstore.NewMemStore()
	return NewStore(storage, nil), storage
}

func TestDistinctSizesAreDistinctLines(t *testing.T) {
	store, _ := newTestStore()

	store.Add(snapshot("p1", "500"), "9", 1, "")
	store.Add(snapshot("p1", "500"), "10", 1, "")

	lines := store.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "9", lines[0].Size)
	assert.Equal(t, "10", lines[1].Size)
}

func TestSameProductAndSizeMergesQuantities(t *testing.T) {
	store, _ := newTestStore()

	store.Add(snapshot("p1", "500"), "9", 2, "")
	store.Add(snapshot("p1", "500"), "9", 3, "")

	lines := store.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
}

// Color is not part of line identity: the same product and size merges no
// matter the color, and the first recorded color wins.
func TestAddMergesAcrossColors(t *testing.T) {
	store, _ := newTestStore()

	store.Add(snapshot("p1", "500"), "9", 1, "black")
	store.Add(snapshot("p1", "500"), "9", 1, "red")

	lines := store.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "black", lines[0].Color)
}

func TestRemoveIsIdempotent(t *testing.T) {
	store, _ := newTestStore()

	store.Add(snapshot("p1", "500"), "9", 1, "")
	store.Add(snapshot("p2", "300"), "M", 1, "")

	store.Remove("p1", "9")
	after := store.Lines()
	store.Remove("p1", "9")

	assert.Equal(t, after, store.Lines())
	require.Len(t, store.Lines(), 1)
	assert.Equal(t, "p2", store.Lines()[0].Product.ID)
}

func TestSetQuantityFloorDelegatesToRemove(t *testing.T) {
	for _, quantity := range []int{0, -1, -100} {
		store, _ := newTestStore()
		store.Add(snapshot("p1", "500"), "9", 2, "")

		store.SetQuantity("p1", "9", quantity)

		assert.Empty(t, store.Lines(), "quantity %d should remove the line", quantity)
	}
}

func TestSetQuantityIsAbsolute(t *testing.T) {
	store, _ := newTestStore()
	store.Add(snapshot("p1", "500"), "9", 2, "")

	store.SetQuantity("p1", "9", 7)

	require.Len(t, store.Lines(), 1)
	assert.Equal(t, 7, store.Lines()[0].Quantity)
}

func TestSetQuantityOnMissingLineIsNoOp(t *testing.T) {
	store, _ := newTestStore()
	store.Add(snapshot("p1", "500"), "9", 2, "")

	store.SetQuantity("p9", "9", 4)

	require.Len(t, store.Lines(), 1)
	assert.Equal(t, 2, store.Lines()[0].Quantity)
}

func TestPersistenceRoundTripPreservesOrder(t *testing.T) {
	storage := localstore.NewMemStore()
	store := NewStore(storage, nil)

	store.Add(snapshot("p3", "10"), "S", 1, "green")
	store.Add(snapshot("p1", "20"), "M", 2, "")
	store.Add(snapshot("p2", "30"), "L", 3, "")

	restored := NewStore(storage, nil)
	restored.Restore()

	assert.Equal(t, store.Lines(), restored.Lines())
}

func TestRestoreWithNoPersistedCart(t *testing.T) {
	store, _ := newTestStore()
	store.Restore()
	assert.Empty(t, store.Lines())
}

func TestRestoreDiscardsCorruptPayload(t *testing.T) {
	storage := localstore.NewMemStore()
	require.NoError(t, storage.Set(localstore.KeyCart, "{{{corrupt"))

	store := NewStore(storage, nil)
	store.Restore()
	assert.Empty(t, store.Lines())
}

func TestClearEmptiesAndPersists(t *testing.T) {
	storage := localstore.NewMemStore()
	store := NewStore(storage, nil)
	store.Add(snapshot("p1", "500"), "9", 2, "")

	store.Clear()

	restored := NewStore(storage, nil)
	restored.Restore()
	assert.Empty(t, restored.Lines())
}

func TestItemCountSumsQuantities(t *testing.T) {
	store, _ := newTestStore()
	store.Add(snapshot("p1", "500"), "9", 2, "")
	store.Add(snapshot("p2", "300"), "M", 5, "")

	assert.Equal(t, 7, store.ItemCount())
}

func TestSubtotalUsesEffectivePrices(t *testing.T) {
	store, _ := newTestStore()

	discounted := snapshot("p1", "500")
	d := decimal.RequireFromString("400")
	discounted.DiscountPrice = &d
	store.Add(discounted, "9", 2, "")

	assert.True(t, store.Subtotal().Equal(decimal.RequireFromString("800")))
}

func TestSubscribeNotifiedOnEveryMutation(t *testing.T) {
	store, _ := newTestStore()
	notified := 0
	store.Subscribe(func() { notified++ })

	store.Add(snapshot("p1", "500"), "9", 1, "")
	store.SetQuantity("p1", "9", 3)
	store.Remove("p1", "9")
	store.Clear()

	assert.Equal(t, 4, notified)
}

func TestLinesReturnsCopy(t *testing.T) {
	store, _ := newTestStore()
	store.Add(snapshot("p1", "500"), "9", 1, "")

	lines := store.Lines()
	lines[0].Quantity = 99

	assert.Equal(t, 1, store.Lines()[0].Quantity)
}
