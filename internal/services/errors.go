// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
)

var (
	// Cart / order placement
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")

	// Orders
	ErrOrderNotFound           = errors.New("order not found")
	ErrInvalidOrderStatus      = errors.New("invalid order status")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")

	// Auth and users
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is deactivated")
	ErrUserNotFound       = errors.New("user not found")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSelfDeactivation   = errors.New("cannot deactivate own account")

	// Catalog
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryInUse    = errors.New("category has active products")
	ErrInvalidPrice     = errors.New("price must not be negative")

	// Content
	ErrPostNotFound         = errors.New("blog post not found")
	ErrSlugTaken            = errors.New("slug already taken")
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// Uploads
	ErrFileTooLarge    = errors.New("file too large")
	ErrFileTypeInvalid = errors.New("file type not allowed")
)

// LineItemError reports which cart line caused an order to be rejected.
type LineItemError struct {
	Err         error
	Index       int
	ProductID   uint
	ProductName string
}

func (e *LineItemError) Error() string {
	if e.ProductName != "" {
		return fmt.Sprintf("item %d (%s): %v", e.Index, e.ProductName, e.Err)
	}
	return fmt.Sprintf("item %d (product %d): %v", e.Index, e.ProductID, e.Err)
}

func (e *LineItemError) Unwrap() error {
	return e.Err
}

// TransitionError carries the rejected order status change.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order cannot move from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidStatusTransition
}
