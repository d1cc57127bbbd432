package errors

import "errors"

var ErrMissingCredentials = errors.New("YOOKASSA_SHOP_ID and/or YOOKASSA_API_KEY are not set")

var ErrIncompleteReceipt = errors.New("receipt has no usable items or settlement amount")
var ErrAmountMismatch = errors.New("items total does not match settlement amount")
var ErrMissingIdentifier = errors.New("receipt has no payment_id or refund_id to attach to")
var ErrUnsupportedReceiptType = errors.New("unsupported receipt type")

var ErrConfirmationClosed = errors.New("confirmation channel closed without a decision")
