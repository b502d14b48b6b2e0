package constants

import "errors"

var (
	// ErrNoQuote source has no data for the symbol
	ErrNoQuote = errors.New("no quote data")
	// ErrNoRate source has no rate for the currency pair
	ErrNoRate = errors.New("no forex rate")
	// ErrSymbolNotResolved source chain exhausted without a valid price
	ErrSymbolNotResolved = errors.New("symbol not resolved")
	// ErrNothingResolved no symbol of the run could be resolved
	ErrNothingResolved = errors.New("no symbols resolved")
	// ErrUnexpectedStatusCode non success http status
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
)
