package quotes

// Result define the outcome of resolving one symbol
type Result struct {
	Quote Quote
	Err   error
}

// Resolved report whether the symbol ended with a usable quote
func (r Result) Resolved() bool {
	return r.Err == nil && r.Quote.Valid()
}
