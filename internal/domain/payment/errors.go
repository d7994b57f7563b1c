package payment

import "errors"

var (
	ErrMissingInput     = errors.New("payment: file and booking token are required")
	ErrUploadNotAllowed = errors.New("payment: proof upload not allowed for booking status")
	ErrProofNotPending  = errors.New("payment: proof already verified")
	ErrReasonRequired   = errors.New("payment: rejection reason is required")
	ErrSlotTaken        = errors.New("payment: date already booked by another booking")
	ErrInvalidDetails   = errors.New("payment: invalid transfer details")
)
