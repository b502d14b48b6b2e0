package recorder

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/njkim/stocksync/constants"
	"github.com/njkim/stocksync/quotes"
	"github.com/njkim/stocksync/stores"
)

// fakeStore record store collecting writes
type fakeStore struct {
	records []stores.Record
	writes  map[string][]stores.Fields
	failIDs map[string]bool
}

func newFakeStore(records ...stores.Record) *fakeStore {
	return &fakeStore{
		records: records,
		writes:  make(map[string][]stores.Fields),
		failIDs: make(map[string]bool),
	}
}

func (s *fakeStore) ListRecords(ctx context.Context) ([]stores.Record, error) {
	return s.records, nil
}

func (s *fakeStore) UpdateRecord(ctx context.Context, id string, fields stores.Fields) error {
	if s.failIDs[id] {
		return errors.New("write refused")
	}

	s.writes[id] = append(s.writes[id], fields)
	return nil
}

func fixedNow(r *Recorder) time.Time {
	at := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	r.now = func() time.Time { return at }
	return at
}

func TestRecorder_Record_Exhaustive(t *testing.T) {
	store := newFakeStore()
	recorder := NewRecorder(store, time.UTC, false)
	fixedNow(recorder)

	records := []stores.Record{
		{ID: "page-a", Symbol: "AAA"},
		{ID: "page-b", Symbol: "BBB"},
		{ID: "page-c", Symbol: "CCC"},
	}
	results := map[string]quotes.Result{
		"AAA": {Quote: quotes.Quote{CurrentPrice: 10, PreviousClose: 9}},
		"BBB": {Err: constants.ErrSymbolNotResolved},
		"CCC": {Quote: quotes.Quote{CurrentPrice: 30, PreviousClose: 28}},
	}

	summary := recorder.Record(context.Background(), records, results, 0)

	want := Summary{OK: 2, Failed: 1, Skipped: 0}
	if summary != want {
		t.Errorf("Recorder.Record() = %+v, want %+v", summary, want)
	}

	// the failure in the middle never blocks the record after it
	if len(store.writes["page-a"]) != 1 || len(store.writes["page-c"]) != 1 {
		t.Errorf("writes = %v, want page-a and page-c written", store.writes)
	}

	if len(store.writes["page-b"]) != 0 {
		t.Errorf("writes[page-b] = %v, want none", store.writes["page-b"])
	}
}

func TestRecorder_Record_SkipsEmptySymbols(t *testing.T) {
	store := newFakeStore()
	recorder := NewRecorder(store, time.UTC, false)
	fixedNow(recorder)

	records := []stores.Record{
		{ID: "page-a", Symbol: "AAA"},
		{ID: "page-x", Symbol: ""},
	}
	results := map[string]quotes.Result{
		"AAA": {Quote: quotes.Quote{CurrentPrice: 10}},
	}

	summary := recorder.Record(context.Background(), records, results, 0)

	want := Summary{OK: 1, Failed: 0, Skipped: 1}
	if summary != want {
		t.Errorf("Recorder.Record() = %+v, want %+v", summary, want)
	}

	if len(store.writes["page-x"]) != 0 {
		t.Errorf("writes[page-x] = %v, want none", store.writes["page-x"])
	}
}

func TestRecorder_Record_WriteFailureCounted(t *testing.T) {
	store := newFakeStore()
	store.failIDs["page-a"] = true
	recorder := NewRecorder(store, time.UTC, false)
	fixedNow(recorder)

	records := []stores.Record{
		{ID: "page-a", Symbol: "AAA"},
		{ID: "page-b", Symbol: "BBB"},
	}
	results := map[string]quotes.Result{
		"AAA": {Quote: quotes.Quote{CurrentPrice: 10}},
		"BBB": {Quote: quotes.Quote{CurrentPrice: 20}},
	}

	summary := recorder.Record(context.Background(), records, results, 0)

	want := Summary{OK: 1, Failed: 1, Skipped: 0}
	if summary != want {
		t.Errorf("Recorder.Record() = %+v, want %+v", summary, want)
	}

	if len(store.writes["page-b"]) != 1 {
		t.Errorf("writes[page-b] = %v, want the loop to continue past the failure", store.writes["page-b"])
	}
}

func TestRecorder_Record_CoercesPreviousClose(t *testing.T) {
	store := newFakeStore()
	recorder := NewRecorder(store, time.UTC, false)
	fixedNow(recorder)

	records := []stores.Record{{ID: "page-a", Symbol: "AAA"}}
	results := map[string]quotes.Result{
		"AAA": {Quote: quotes.Quote{CurrentPrice: 50, PreviousClose: 0}},
	}

	recorder.Record(context.Background(), records, results, 0)

	fields := store.writes["page-a"][0]
	if fields.PreviousClose != 50 {
		t.Errorf("stored previous close = %f, want coerced to current 50", fields.PreviousClose)
	}
}

func TestRecorder_Record_Idempotent(t *testing.T) {
	store := newFakeStore()
	recorder := NewRecorder(store, time.UTC, false)
	fixedNow(recorder)

	records := []stores.Record{{ID: "page-a", Symbol: "AAA"}}
	results := map[string]quotes.Result{
		"AAA": {Quote: quotes.Quote{CurrentPrice: 10, PreviousClose: 9, MarketCapUnits: 2500, Name: "Triple A"}},
	}

	first := recorder.Record(context.Background(), records, results, 1318.42)
	second := recorder.Record(context.Background(), records, results, 1318.42)

	if first != second {
		t.Errorf("summaries differ: %+v vs %+v", first, second)
	}

	writes := store.writes["page-a"]
	if len(writes) != 2 {
		t.Errorf("writes = %d, want 2", len(writes))
		return
	}

	if !reflect.DeepEqual(writes[0], writes[1]) {
		t.Errorf("written fields differ between runs: %+v vs %+v", writes[0], writes[1])
	}
}

func TestRecorder_Record_NameFallsBackToSymbol(t *testing.T) {
	store := newFakeStore()
	recorder := NewRecorder(store, time.UTC, false)
	fixedNow(recorder)

	records := []stores.Record{{ID: "page-a", Symbol: "AAA"}}
	results := map[string]quotes.Result{
		"AAA": {Quote: quotes.Quote{CurrentPrice: 10}},
	}

	recorder.Record(context.Background(), records, results, 0)

	if got := store.writes["page-a"][0].Name; got != "AAA" {
		t.Errorf("stored name = %q, want symbol fallback AAA", got)
	}
}

func TestRecorder_Record_DryRun(t *testing.T) {
	store := newFakeStore()
	recorder := NewRecorder(store, time.UTC, true)
	fixedNow(recorder)

	records := []stores.Record{{ID: "page-a", Symbol: "AAA"}}
	results := map[string]quotes.Result{
		"AAA": {Quote: quotes.Quote{CurrentPrice: 10}},
	}

	summary := recorder.Record(context.Background(), records, results, 0)

	if summary.OK != 1 {
		t.Errorf("Recorder.Record() ok = %d, want 1", summary.OK)
	}

	if len(store.writes) != 0 {
		t.Errorf("writes = %v, want none in dry run", store.writes)
	}
}

func TestRecorder_Record_DuplicateSymbols(t *testing.T) {
	store := newFakeStore()
	recorder := NewRecorder(store, time.UTC, false)
	fixedNow(recorder)

	// two records share a symbol, both still get their own write
	records := []stores.Record{
		{ID: "page-a", Symbol: "AAA"},
		{ID: "page-a2", Symbol: "AAA"},
	}
	results := map[string]quotes.Result{
		"AAA": {Quote: quotes.Quote{CurrentPrice: 10}},
	}

	summary := recorder.Record(context.Background(), records, results, 0)

	if summary.OK != 2 {
		t.Errorf("Recorder.Record() ok = %d, want 2", summary.OK)
	}

	if len(store.writes["page-a"]) != 1 || len(store.writes["page-a2"]) != 1 {
		t.Errorf("writes = %v, want both records written", store.writes)
	}
}
