package model

import "errors"

var (
	ErrAddressNotResolved  = errors.New("address not resolved")
	ErrRetrieval           = errors.New("retrieval failed")
	ErrMalformedResponse   = errors.New("malformed response")
	ErrNarrativeGeneration = errors.New("narrative generation failed")
	ErrInvalidRequest      = errors.New("invalid request")
)
