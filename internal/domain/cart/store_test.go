package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fan() Product {
	return Product{
		ID:              "fan-24",
		Name:            "Mega Bracket Fan 24",
		Image:           "https://cdn.example.com/fan.jpg",
		Price:           decimal.RequireFromString("14500"),
		DiscountedPrice: decimal.NewNullDecimal(decimal.RequireFromString("12760")),
	}
}

func iron() Product {
	return Product{
		ID:    "iron-555",
		Name:  "Dry Iron OR 555",
		Price: decimal.RequireFromString("2610"),
	}
}

func newStore(t *testing.T) (*Store, *MemoryStorage) {
	t.Helper()
	storage := NewMemoryStorage()
	store := NewStore(storage, SessionKey("abc"))
	_, err := store.Load(context.Background())
	require.NoError(t, err)
	return store, storage
}

type failingStorage struct {
	*MemoryStorage
	err error
}

func (f *failingStorage) Update(context.Context, string, func([]byte) ([]byte, error)) error {
	return f.err
}

func TestAddItemTwiceIncrements(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	_, added, err := store.AddItem(ctx, fan(), 1)
	require.NoError(t, err)
	assert.True(t, added)

	c, added, err := store.AddItem(ctx, fan(), 1)
	require.NoError(t, err)
	assert.False(t, added)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, 2, c.TotalItemCount())
}

func TestAddItemClampsQuantity(t *testing.T) {
	store, _ := newStore(t)

	c, _, err := store.AddItem(context.Background(), iron(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Items[0].Quantity)
}

func TestAddItemWithoutIDIsRejected(t *testing.T) {
	store, _ := newStore(t)

	_, _, err := store.AddItem(context.Background(), Product{Name: "ghost"}, 1)
	assert.ErrorIs(t, err, ErrInvalidItem)
	assert.True(t, store.Cart().IsEmpty())
}

func TestAddItemKeepsFirstPriceSnapshot(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	_, _, err := store.AddItem(ctx, fan(), 1)
	require.NoError(t, err)

	repriced := fan()
	repriced.DiscountedPrice = decimal.NewNullDecimal(decimal.RequireFromString("9999"))
	c, _, err := store.AddItem(ctx, repriced, 1)
	require.NoError(t, err)

	assert.True(t, c.Items[0].UnitPrice().Equal(decimal.RequireFromString("12760")))
}

func TestSetQuantityFloorsAtOne(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	_, _, err := store.AddItem(ctx, fan(), 1)
	require.NoError(t, err)

	c, err := store.SetQuantity(ctx, "fan-24", -1)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 1, c.Items[0].Quantity)

	c, err = store.SetQuantity(ctx, "fan-24", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Items[0].Quantity)

	c, err = store.SetQuantity(ctx, "fan-24", -5)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Items[0].Quantity)
}

func TestSetQuantityOnAbsentLineIsNoop(t *testing.T) {
	store, _ := newStore(t)

	c, err := store.SetQuantity(context.Background(), "missing", 1)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	_, _, err := store.AddItem(ctx, fan(), 1)
	require.NoError(t, err)
	_, _, err = store.AddItem(ctx, iron(), 2)
	require.NoError(t, err)

	before := store.Cart()
	c, err := store.RemoveItem(ctx, "not-there")
	require.NoError(t, err)
	assert.Equal(t, before.Items, c.Items)

	c, err = store.RemoveItem(ctx, "fan-24")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "iron-555", c.Items[0].ProductID)
}

func TestSubtotalUsesDiscountedPriceWhenPresent(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	c, _, err := store.AddItem(ctx, fan(), 1)
	require.NoError(t, err)
	assert.True(t, c.Subtotal().Equal(decimal.RequireFromString("12760")))

	c, _, err = store.AddItem(ctx, iron(), 2)
	require.NoError(t, err)
	assert.True(t, c.Subtotal().Equal(decimal.RequireFromString("17980")))
	assert.Equal(t, 3, c.TotalItemCount())
}

func TestPersistedCartRoundTrips(t *testing.T) {
	ctx := context.Background()
	store, storage := newStore(t)
	_, _, err := store.AddItem(ctx, fan(), 2)
	require.NoError(t, err)
	_, _, err = store.AddItem(ctx, iron(), 1)
	require.NoError(t, err)

	reloaded := NewStore(storage, SessionKey("abc"))
	c, err := reloaded.Load(ctx)
	require.NoError(t, err)

	assert.True(t, c.Subtotal().Equal(store.Cart().Subtotal()))
	assert.Equal(t, store.Cart().TotalItemCount(), c.TotalItemCount())
	assert.False(t, c.Items[1].DiscountedPrice.Valid)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	store, storage := newStore(t)
	_, _, err := store.AddItem(ctx, fan(), 1)
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx))
	assert.True(t, store.Cart().IsEmpty())

	c, err := NewStore(storage, SessionKey("abc")).Load(ctx)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestRemoveOrderedKeepsLaterAdditions(t *testing.T) {
	ctx := context.Background()
	store, storage := newStore(t)

	ordered, _, err := store.AddItem(ctx, fan(), 2)
	require.NoError(t, err)

	other := NewStore(storage, SessionKey("abc"))
	_, err = other.Load(ctx)
	require.NoError(t, err)
	_, _, err = other.AddItem(ctx, fan(), 1)
	require.NoError(t, err)
	_, _, err = other.AddItem(ctx, iron(), 1)
	require.NoError(t, err)

	c, err := store.RemoveOrdered(ctx, ordered.Items)
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	assert.Equal(t, "fan-24", c.Items[0].ProductID)
	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.Equal(t, "iron-555", c.Items[1].ProductID)

	c, err = store.RemoveOrdered(ctx, c.Items)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestLoadIgnoresCorruptBlob(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	require.NoError(t, storage.Update(ctx, "k", func([]byte) ([]byte, error) {
		return []byte("{not json"), nil
	}))

	c, err := NewStore(storage, "k").Load(ctx)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestWriteFailureIsRecoverable(t *testing.T) {
	ctx := context.Background()
	storage := &failingStorage{MemoryStorage: NewMemoryStorage(), err: errors.New("quota exceeded")}
	store := NewStore(storage, "k")

	c, added, err := store.AddItem(ctx, fan(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersist)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.False(t, added)
	assert.True(t, c.IsEmpty())
	assert.True(t, store.Cart().IsEmpty())
}

func TestConcurrentStoresOnSameKeyDoNotLoseUpdates(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each request builds its own store over the shared session key.
			s := NewStore(storage, SessionKey("shared"))
			_, _, err := s.AddItem(ctx, fan(), 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	c, err := NewStore(storage, SessionKey("shared")).Load(ctx)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 20, c.Items[0].Quantity)
}
