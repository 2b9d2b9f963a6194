package protocol

import "errors"

var (
	ErrInvalidPayload = errors.New("protocol: invalid payload size")
	ErrUnknownMessage  = errors.New("protocol: unknown message type")
	ErrMalformedFrame  = errors.New("protocol: malformed envelope")
)
