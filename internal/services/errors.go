package services

import "errors"

var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrCartInvalid             = errors.New("cart cannot be fulfilled")
	ErrAmountMismatch          = errors.New("client amount disagrees with computed total")
	ErrOrderMetaMissing        = errors.New("no order metadata for transaction")
	ErrPaymentNotCompleted     = errors.New("payment not completed")
	ErrVerificationUnavailable = errors.New("payment status could not be verified")
)
