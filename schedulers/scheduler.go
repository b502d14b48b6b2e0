package schedulers

import (
	"context"
	"sort"
	"time"

	"github.com/njkim/stocksync/constants"
	"github.com/njkim/stocksync/quotes"
	"go.uber.org/zap"
)

// Resolver define the resolution pipeline driven by the scheduler
type Resolver interface {
	// ResolveBatch issue one batch request for a chunk of symbols
	ResolveBatch(ctx context.Context, symbols []string) map[string]quotes.Quote
	// ResolveOne walk the fallback chain for one symbol
	ResolveOne(ctx context.Context, symbol string, seed quotes.Quote) quotes.Result
}

// Scheduler dispatch symbol chunks sequentially, then sweep still unresolved
// symbols one at a time. Single threaded on purpose, the pacing sleeps are
// the rate limit protection.
type Scheduler struct {
	resolver      Resolver
	chunkSize     int
	chunkInterval time.Duration
	sweepInterval time.Duration
}

// NewScheduler create scheduler
func NewScheduler(resolver Resolver, chunkSize int, chunkInterval, sweepInterval time.Duration) *Scheduler {
	if chunkSize <= 0 {
		chunkSize = constants.DefaultChunkSize
	}

	return &Scheduler{
		resolver:      resolver,
		chunkSize:     chunkSize,
		chunkInterval: chunkInterval,
		sweepInterval: sweepInterval,
	}
}

// Run resolve the whole symbol set. Every deduplicated symbol gets exactly
// one result.
func (s *Scheduler) Run(ctx context.Context, symbols []string) map[string]quotes.Result {
	symbols = Dedupe(symbols)
	chunks := Partition(symbols, s.chunkSize)

	zap.L().Info("quote run start",
		zap.Int("symbols", len(symbols)),
		zap.Int("chunks", len(chunks)),
		zap.Int("chunkSize", s.chunkSize))

	working := make(map[string]quotes.Quote, len(symbols))
	for index, chunk := range chunks {
		if index > 0 {
			time.Sleep(s.chunkInterval)
		}

		fetched := s.resolver.ResolveBatch(ctx, chunk)
		for symbol, quote := range fetched {
			working[symbol] = working[symbol].Merge(quote)
		}

		zap.L().Info("chunk dispatched",
			zap.Int("chunk", index+1),
			zap.Int("chunks", len(chunks)),
			zap.Int("symbols", len(chunk)),
			zap.Int("fetched", len(fetched)))
	}

	results := make(map[string]quotes.Result, len(symbols))
	var unresolved []string
	for _, symbol := range symbols {
		quote := working[symbol]
		if quote.Valid() {
			results[symbol] = quotes.Result{Quote: quote}
			continue
		}

		unresolved = append(unresolved, symbol)
	}

	if len(unresolved) > 0 {
		zap.L().Info("single symbol sweep start", zap.Int("symbols", len(unresolved)))
	}

	for _, symbol := range unresolved {
		time.Sleep(s.sweepInterval)
		results[symbol] = s.resolver.ResolveOne(ctx, symbol, working[symbol])
	}

	return results
}

// Dedupe drop duplicate and empty symbols and sort the rest
func Dedupe(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	result := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		if symbol == "" || seen[symbol] {
			continue
		}

		seen[symbol] = true
		result = append(result, symbol)
	}

	sort.Strings(result)

	return result
}

// Partition split symbols into fixed size chunks, the last one may be short
func Partition(symbols []string, size int) [][]string {
	if size <= 0 || len(symbols) == 0 {
		return nil
	}

	chunks := make([][]string, 0, (len(symbols)+size-1)/size)
	for start := 0; start < len(symbols); start += size {
		end := start + size
		if end > len(symbols) {
			end = len(symbols)
		}

		chunks = append(chunks, symbols[start:end])
	}

	return chunks
}
