package order

import "errors"

var (
	ErrMissingID          = errors.New("order id is required")
	ErrInvalidType        = errors.New("unknown order type")
	ErrMissingReferenceID = errors.New("reference order id is required for this order type")
	ErrMissingItems       = errors.New("order items are required for this order type")
	ErrMissingWindow      = errors.New("order start and end are required for this order type")
	ErrInvalidWindow      = errors.New("order end is before its start")
	ErrMissingPayments    = errors.New("payments are required for this order type")
	ErrInvalidPayment     = errors.New("invalid payment line")
	ErrInvalidDiscount    = errors.New("discount must be between 0 and 100")
	ErrInvalidServiceFee  = errors.New("service fee cannot be negative")

	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidAmount   = errors.New("amount cannot be negative")
	ErrInvalidCode     = errors.New("unknown catalog code")
)
