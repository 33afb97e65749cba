package enum

// EventType identifies an event on the storefront bus
type EventType string

const (
	// published by this service after cart mutations
	EventTypeCartUpdated EventType = "cart.updated"
	EventTypeCartMerged  EventType = "cart.merged"

	// consumed from the catalog admin service
	EventTypeProductUpdated EventType = "product.updated"
	EventTypeProductDeleted EventType = "product.deleted"
)
