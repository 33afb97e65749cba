package enum

// CartOwnerKind distinguishes user carts from guest carts
type CartOwnerKind string

const (
	CartOwnerKindUser  CartOwnerKind = "user"
	CartOwnerKindGuest CartOwnerKind = "guest"
)
