package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"

	"github.com/rabbitio/storefront/models"
)

func item(productID, size, color string, qty int, price float64) models.LineItem {
	return models.LineItem{
		ProductID: productID,
		Name:      "name-" + productID,
		Size:      size,
		Color:     color,
		Quantity:  qty,
		UnitPrice: price,
	}
}

// expectedTotal recomputes the invariant independently of Cart.
func expectedTotal(c *models.Cart) float64 {
	var total float64
	for _, it := range c.Items {
		total += float64(it.Quantity) * it.UnitPrice
	}
	return total
}

func assertNoDuplicateKeys(t *testing.T, c *models.Cart) {
	t.Helper()
	seen := make(map[models.LineItemKey]bool)
	for _, it := range c.Items {
		require.False(t, seen[it.Key()], "duplicate line item key %+v", it.Key())
		seen[it.Key()] = true
	}
}

func TestCartUpsert(t *testing.T) {
	tests := []struct {
		name      string
		existing  []models.LineItem
		add       models.LineItem
		wantItems int
		wantQty   int
		wantTotal float64
	}{
		{
			name:      "append to empty cart",
			add:       item("p1", "M", "Red", 2, 10),
			wantItems: 1,
			wantQty:   2,
			wantTotal: 20,
		},
		{
			name:      "same key sums quantities",
			existing:  []models.LineItem{item("p1", "M", "Red", 2, 10)},
			add:       item("p1", "M", "Red", 3, 10),
			wantItems: 1,
			wantQty:   5,
			wantTotal: 50,
		},
		{
			name:      "same product different size appends",
			existing:  []models.LineItem{item("p1", "M", "Red", 2, 10)},
			add:       item("p1", "L", "Red", 1, 10),
			wantItems: 2,
			wantQty:   1,
			wantTotal: 30,
		},
		{
			name:      "same product different color appends",
			existing:  []models.LineItem{item("p1", "M", "Red", 2, 10)},
			add:       item("p1", "M", "Blue", 1, 10),
			wantItems: 2,
			wantQty:   1,
			wantTotal: 30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := models.NewCart(models.UserOwner("u1"), stripe.CurrencyUSD)
			for _, it := range tt.existing {
				cart.Upsert(it)
			}

			cart.Upsert(tt.add)

			require.Len(t, cart.Items, tt.wantItems)
			last := cart.Items[len(cart.Items)-1]
			assert.Equal(t, tt.wantQty, last.Quantity)
			assert.Equal(t, tt.wantTotal, cart.TotalPrice)
			assert.Equal(t, expectedTotal(cart), cart.TotalPrice)
			assertNoDuplicateKeys(t, cart)
		})
	}
}

func TestCartSetQuantity(t *testing.T) {
	key := models.LineItemKey{ProductID: "p1", Size: "M", Color: "Red"}

	t.Run("absolute set, not delta", func(t *testing.T) {
		cart := models.NewCart(models.GuestOwner("g1"), stripe.CurrencyUSD)
		cart.Upsert(item("p1", "M", "Red", 2, 10))

		require.True(t, cart.SetQuantity(key, 7))

		require.Len(t, cart.Items, 1)
		assert.Equal(t, 7, cart.Items[0].Quantity)
		assert.Equal(t, 70.0, cart.TotalPrice)
	})

	t.Run("zero quantity removes the item", func(t *testing.T) {
		cart := models.NewCart(models.GuestOwner("g1"), stripe.CurrencyUSD)
		cart.Upsert(item("p1", "M", "Red", 2, 10))

		require.True(t, cart.SetQuantity(key, 0))

		assert.Empty(t, cart.Items)
		assert.Equal(t, 0.0, cart.TotalPrice)
	})

	t.Run("negative quantity removes the item", func(t *testing.T) {
		cart := models.NewCart(models.GuestOwner("g1"), stripe.CurrencyUSD)
		cart.Upsert(item("p1", "M", "Red", 2, 10))

		require.True(t, cart.SetQuantity(key, -1))

		assert.Empty(t, cart.Items)
		assert.Equal(t, 0.0, cart.TotalPrice)
	})

	t.Run("absent key reports false", func(t *testing.T) {
		cart := models.NewCart(models.GuestOwner("g1"), stripe.CurrencyUSD)
		cart.Upsert(item("p2", "L", "Blue", 1, 5))

		assert.False(t, cart.SetQuantity(key, 3))
		assert.Equal(t, 5.0, cart.TotalPrice)
	})
}

func TestCartRemove(t *testing.T) {
	key := models.LineItemKey{ProductID: "p1", Size: "M", Color: "Red"}

	cart := models.NewCart(models.UserOwner("u1"), stripe.CurrencyUSD)
	cart.Upsert(item("p1", "M", "Red", 2, 10))
	cart.Upsert(item("p2", "L", "Blue", 1, 20))

	require.True(t, cart.Remove(key))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 20.0, cart.TotalPrice)

	// removing again is safe and reports absence
	assert.False(t, cart.Remove(key))
	assert.Equal(t, 20.0, cart.TotalPrice)
}

func TestCartMergeFrom(t *testing.T) {
	t.Run("key union sums quantities", func(t *testing.T) {
		userCart := models.NewCart(models.UserOwner("u1"), stripe.CurrencyUSD)
		userCart.Upsert(item("p1", "M", "Red", 2, 10))

		guestCart := models.NewCart(models.GuestOwner("g1"), stripe.CurrencyUSD)
		guestCart.Upsert(item("p1", "M", "Red", 3, 10))
		guestCart.Upsert(item("p2", "L", "Blue", 1, 20))

		userCart.MergeFrom(guestCart)

		require.Len(t, userCart.Items, 2)
		assert.Equal(t, 5, userCart.Items[0].Quantity)
		assert.Equal(t, 1, userCart.Items[1].Quantity)
		assert.Equal(t, 70.0, userCart.TotalPrice)
		assertNoDuplicateKeys(t, userCart)
	})

	t.Run("existing order preserved, guest items appended", func(t *testing.T) {
		userCart := models.NewCart(models.UserOwner("u1"), stripe.CurrencyUSD)
		userCart.Upsert(item("p1", "M", "Red", 1, 10))
		userCart.Upsert(item("p2", "M", "Red", 1, 10))

		guestCart := models.NewCart(models.GuestOwner("g1"), stripe.CurrencyUSD)
		guestCart.Upsert(item("p3", "M", "Red", 1, 10))
		guestCart.Upsert(item("p2", "M", "Red", 1, 10))

		userCart.MergeFrom(guestCart)

		require.Len(t, userCart.Items, 3)
		assert.Equal(t, "p1", userCart.Items[0].ProductID)
		assert.Equal(t, "p2", userCart.Items[1].ProductID)
		assert.Equal(t, 2, userCart.Items[1].Quantity)
		assert.Equal(t, "p3", userCart.Items[2].ProductID)
	})

	t.Run("empty guest cart changes nothing", func(t *testing.T) {
		userCart := models.NewCart(models.UserOwner("u1"), stripe.CurrencyUSD)
		userCart.Upsert(item("p1", "M", "Red", 2, 10))

		userCart.MergeFrom(models.NewCart(models.GuestOwner("g1"), stripe.CurrencyUSD))

		require.Len(t, userCart.Items, 1)
		assert.Equal(t, 20.0, userCart.TotalPrice)
	})

	t.Run("nil other is a no-op", func(t *testing.T) {
		userCart := models.NewCart(models.UserOwner("u1"), stripe.CurrencyUSD)
		userCart.MergeFrom(nil)
		assert.Empty(t, userCart.Items)
	})
}

func TestCartOwnerStorageKey(t *testing.T) {
	assert.Equal(t, "cart:user:u1", models.UserOwner("u1").StorageKey())
	assert.Equal(t, "cart:guest:g1", models.GuestOwner("g1").StorageKey())

	// the structured key cannot collide the way concatenated ids could
	assert.NotEqual(t, models.UserOwner("x:y").StorageKey(), models.GuestOwner("x:y").StorageKey())
}

func TestLineItemKeyIsStructural(t *testing.T) {
	a := item("p1", "M", "Red", 1, 10)
	b := item("p1", "MRed", "", 1, 10)

	// fields that merely concatenate equally must not collide
	assert.NotEqual(t, a.Key(), b.Key())
}
