package delivery

import "errors"

var (
	errUnavailable = errors.New("channel not configured")
	errNoInvoice   = errors.New("invoice was not generated")
)
