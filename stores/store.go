package stores

import (
	"context"
	"time"
)

// Record define one source record handle with its extracted symbol. An empty
// symbol means the record carries no usable ticker.
type Record struct {
	ID     string
	Symbol string
}

// Fields define the typed values written back to a record. Zero values are
// omitted from the write.
type Fields struct {
	CurrentPrice   float64
	PreviousClose  float64
	MarketCapUnits int64
	Name           string
	UpdatedAt      time.Time
	FxRate         float64
}

// Store define the external record store boundary
type Store interface {
	// ListRecords enumerate all records, driving pagination internally
	ListRecords(ctx context.Context) ([]Record, error)
	// UpdateRecord write quote fields to one record
	UpdateRecord(ctx context.Context, id string, fields Fields) error
}
