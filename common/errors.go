package common

import "errors"

var (
	ErrContractNotFound = errors.New("contract not found")
	ErrContractExists   = errors.New("contract already exists")

	ErrStoreClosed = errors.New("contract store closed")
	ErrEmptyID     = errors.New("contract id cannot be empty")
)
