package models

import "github.com/pkg/errors"

// Expected outcomes of normal queue operation. They are surfaced to the
// caller as rejections and are not logged as failures.
var (
	// ErrDuplicateClient means the client already has a pending order.
	ErrDuplicateClient = errors.New("client already has a pending order")

	// ErrOrderTooLarge means the order exceeds the maximum delivery size.
	// Orders cannot be split across deliveries, so such an order could
	// never be served.
	ErrOrderTooLarge = errors.New("order exceeds the maximum delivery size")

	// ErrInvalidQuantity means the requested quantity is not positive.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrOrderNotFound means the lookup or delete target does not exist.
	ErrOrderNotFound = errors.New("order not found")
)
