package models

import (
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"

	"github.com/rabbitio/storefront/models/enum"
)

// CartOwner identifies who a cart belongs to. A cart is either a user cart
// or a guest cart, never both.
type CartOwner struct {
	Kind enum.CartOwnerKind `json:"kind"`
	ID   string             `json:"id"`
}

func UserOwner(userID string) CartOwner {
	return CartOwner{Kind: enum.CartOwnerKindUser, ID: userID}
}

func GuestOwner(guestID string) CartOwner {
	return CartOwner{Kind: enum.CartOwnerKindGuest, ID: guestID}
}

func (o CartOwner) IsZero() bool {
	return o.ID == ""
}

func (o CartOwner) IsGuest() bool {
	return o.Kind == enum.CartOwnerKindGuest
}

// StorageKey is the document key in the cart store.
func (o CartOwner) StorageKey() string {
	return fmt.Sprintf("cart:%s:%s", o.Kind, o.ID)
}

// LineItemKey is the uniqueness key of a line item within a cart.
// Two line items with the same key must never coexist.
type LineItemKey struct {
	ProductID string
	Size      string
	Color     string
}

// LineItem is a single product entry in a cart. Name, Image and UnitPrice
// are snapshots taken from the catalog at add time and are not re-read on
// later views.
type LineItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Size      string  `json:"size"`
	Color     string  `json:"color"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

func (li LineItem) Key() LineItemKey {
	return LineItemKey{ProductID: li.ProductID, Size: li.Size, Color: li.Color}
}

// Cart is stored as a single document keyed by its owner.
type Cart struct {
	Owner      CartOwner       `json:"owner"`
	Currency   stripe.Currency `json:"currency"`
	Items      []LineItem      `json:"items"`
	TotalPrice float64         `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func NewCart(owner CartOwner, currency stripe.Currency) *Cart {
	now := time.Now()
	return &Cart{
		Owner:     owner,
		Currency:  currency,
		Items:     []LineItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Upsert adds item to the cart. If a line item with the same
// (product, size, color) key exists, quantities are summed; otherwise the
// item is appended. The total is recomputed before returning.
func (c *Cart) Upsert(item LineItem) {
	idx := c.findIndex(item.Key())
	if idx >= 0 {
		c.Items[idx].Quantity += item.Quantity
	} else {
		c.Items = append(c.Items, item)
	}
	c.recalculate()
}

// SetQuantity sets the quantity of the line item matching key to an absolute
// value. A quantity of zero or less removes the item entirely. It reports
// whether the item was present.
func (c *Cart) SetQuantity(key LineItemKey, quantity int) bool {
	idx := c.findIndex(key)
	if idx < 0 {
		return false
	}

	if quantity > 0 {
		c.Items[idx].Quantity = quantity
	} else {
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	}
	c.recalculate()
	return true
}

// Remove deletes the line item matching key and reports whether it existed.
func (c *Cart) Remove(key LineItemKey) bool {
	return c.SetQuantity(key, 0)
}

// MergeFrom folds the items of other into c as a key-based multiset union:
// matching keys sum quantities, unseen keys are appended in other's order.
// Existing item order in c is preserved.
func (c *Cart) MergeFrom(other *Cart) {
	if other == nil {
		return
	}
	for _, item := range other.Items {
		c.Upsert(item)
	}
}

// recalculate restores the total-price invariant:
// TotalPrice == sum of quantity * unit price over all line items.
func (c *Cart) recalculate() {
	var total float64
	for _, item := range c.Items {
		total += float64(item.Quantity) * item.UnitPrice
	}
	c.TotalPrice = total
	c.UpdatedAt = time.Now()
}

func (c *Cart) findIndex(key LineItemKey) int {
	for i := range c.Items {
		if c.Items[i].Key() == key {
			return i
		}
	}
	return -1
}
