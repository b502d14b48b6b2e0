package recorder

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/njkim/stocksync/quotes"
	"github.com/njkim/stocksync/stores"
)

// Summary count run outcomes
type Summary struct {
	OK      int
	Failed  int
	Skipped int
}

// Recorder write resolved quotes back onto source records
type Recorder struct {
	store  stores.Store
	dryRun bool
	now    func() time.Time
}

// NewRecorder create recorder. The location stamps the update time field.
func NewRecorder(store stores.Store, location *time.Location, dryRun bool) *Recorder {
	if location == nil {
		location = time.Local
	}

	return &Recorder{
		store:  store,
		dryRun: dryRun,
		now:    func() time.Time { return time.Now().In(location) },
	}
}

// Record write every record once and count outcomes. One record's failure
// never blocks another's write, and re-running with the same results writes
// the same field values.
func (s Recorder) Record(ctx context.Context, records []stores.Record, results map[string]quotes.Result, fxRate float64) Summary {
	var summary Summary
	now := s.now()

	for index, record := range records {
		if record.Symbol == "" {
			summary.Skipped++
			zap.L().Warn("skip record without symbol",
				zap.Int("index", index+1),
				zap.Int("records", len(records)),
				zap.String("id", record.ID))
			continue
		}

		result := results[record.Symbol]
		if !result.Resolved() {
			summary.Failed++
			zap.L().Warn("record quote unresolved",
				zap.Error(result.Err),
				zap.Int("index", index+1),
				zap.Int("records", len(records)),
				zap.String("symbol", record.Symbol))
			continue
		}

		quote := result.Quote
		fields := stores.Fields{
			CurrentPrice:   quote.CurrentPrice,
			PreviousClose:  quote.EffectivePreviousClose(),
			MarketCapUnits: quote.MarketCapUnits,
			Name:           quote.Name,
			UpdatedAt:      now,
			FxRate:         fxRate,
		}
		if fields.Name == "" {
			fields.Name = record.Symbol
		}

		if !s.dryRun {
			err := s.store.UpdateRecord(ctx, record.ID, fields)
			if err != nil {
				summary.Failed++
				zap.L().Error("update record failed",
					zap.Error(err),
					zap.Int("index", index+1),
					zap.Int("records", len(records)),
					zap.String("symbol", record.Symbol),
					zap.String("id", record.ID))
				continue
			}
		}

		summary.OK++
		zap.L().Info("record updated",
			zap.Int("index", index+1),
			zap.Int("records", len(records)),
			zap.String("symbol", record.Symbol),
			zap.Float64("price", quote.CurrentPrice),
			zap.Float64("change", quote.ChangePercent()))
	}

	return summary
}
