package models

import (
	"encoding/json"
	"time"

	"github.com/rabbitio/storefront/models/enum"
)

type Event struct {
	ID        string          `json:"id"`
	Type      enum.EventType  `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Processed bool            `json:"processed"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CartEventPayload is the payload of cart.updated and cart.merged events.
type CartEventPayload struct {
	OwnerKind  enum.CartOwnerKind `json:"owner_kind"`
	OwnerID    string             `json:"owner_id"`
	ItemCount  int                `json:"item_count"`
	TotalPrice float64            `json:"total_price"`
}

// ProductEventPayload is the payload of product.* events published by the
// catalog admin service.
type ProductEventPayload struct {
	ProductID string `json:"product_id"`
}
