package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/njkim/stocksync/config"
	"github.com/njkim/stocksync/constants"
	"github.com/njkim/stocksync/netops"
	"github.com/njkim/stocksync/recorder"
	"github.com/njkim/stocksync/resolvers"
	"github.com/njkim/stocksync/schedulers"
	"github.com/njkim/stocksync/sources"
	"github.com/njkim/stocksync/stores"
	"go.uber.org/zap"
)

// Refresher define the full quote refresh job
type Refresher struct {
	config    *config.Config
	store     stores.Store
	forex     *sources.ForexSource
	scheduler *schedulers.Scheduler
	recorder  *recorder.Recorder
}

// NewRefresher assemble the refresh job from config
func NewRefresher(conf *config.Config, dryRun bool) *Refresher {
	client := netops.NewClient(constants.RetryCount, constants.RetryBaseInterval)

	fmp := sources.NewFinancialModelingPrep(client, conf.FMP.BaseURL, conf.FMP.APIKey)
	yahoo := sources.NewYahooFinance(client, conf.Yahoo.BaseURL)
	resolver := resolvers.NewResolver(fmp, yahoo)
	scheduler := schedulers.NewScheduler(resolver, conf.ChunkSize, conf.ChunkInterval(), conf.SweepInterval())

	store := stores.NewNotion(conf.Notion.BaseURL, conf.Notion.Token, conf.Notion.Database, stores.NotionSchema{
		Ticker:        conf.Fields.Ticker,
		CurrentPrice:  conf.Fields.CurrentPrice,
		PreviousClose: conf.Fields.PreviousClose,
		MarketCap:     conf.Fields.MarketCap,
		UpdatedAt:     conf.Fields.UpdatedAt,
		Name:          conf.Fields.Name,
		FxRate:        conf.Fields.FxRate,
	})

	return &Refresher{
		config:    conf,
		store:     store,
		forex:     sources.NewForexSource(client, conf.FMP.BaseURL, conf.FMP.APIKey),
		scheduler: scheduler,
		recorder:  recorder.NewRecorder(store, conf.Location(), dryRun),
	}
}

// Run list records, resolve quotes and write them back
func (s Refresher) Run(ctx context.Context) (recorder.Summary, error) {
	undo := zap.ReplaceGlobals(zap.L().With(zap.String("run", uuid.New().String())))
	defer undo()

	start := time.Now()

	records, err := s.store.ListRecords(ctx)
	if err != nil {
		zap.L().Error("list records failed", zap.Error(err))
		return recorder.Summary{}, err
	}

	if len(records) == 0 {
		zap.L().Warn("list records success, nothing to refresh")
		return recorder.Summary{}, nil
	}

	zap.L().Info("list records success", zap.Int("records", len(records)))

	symbols := make([]string, 0, len(records))
	for _, record := range records {
		symbols = append(symbols, record.Symbol)
	}

	results := s.scheduler.Run(ctx, symbols)

	resolved := 0
	for _, result := range results {
		if result.Resolved() {
			resolved++
		}
	}

	// fatal only when symbols were attempted and none resolved. Records
	// without a usable ticker never abort the run, they count as skipped.
	if resolved == 0 && len(results) > 0 {
		zap.L().Error("resolve quotes failed", zap.Int("symbols", len(results)))
		return recorder.Summary{}, constants.ErrNothingResolved
	}

	if len(results) == 0 {
		zap.L().Warn("no usable symbols in any record", zap.Int("records", len(records)))
	} else {
		zap.L().Info("resolve quotes success",
			zap.Int("resolved", resolved),
			zap.Int("symbols", len(results)))
	}

	var fxRate float64
	if resolved > 0 {
		fxRate = s.fxRate(ctx)
	}

	summary := s.recorder.Record(ctx, records, results, fxRate)

	zap.L().Info("refresh success",
		zap.Int("ok", summary.OK),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Duration("duration", time.Since(start)))

	return summary, nil
}

// fxRate query the exchange rate. Failures only cost the fx column.
func (s Refresher) fxRate(ctx context.Context) float64 {
	rate, err := s.forex.Rate(ctx, s.config.Fx.Pair)
	if err != nil {
		zap.L().Warn("get forex rate failed", zap.Error(err), zap.String("pair", s.config.Fx.Pair))
		return 0
	}

	zap.L().Info("get forex rate success", zap.String("pair", s.config.Fx.Pair), zap.Float64("rate", rate))

	return rate
}
