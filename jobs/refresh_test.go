package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/njkim/stocksync/config"
	"github.com/njkim/stocksync/constants"
	"github.com/njkim/stocksync/recorder"
)

type recordedPatch struct {
	id         string
	properties map[string]patchProperty
}

type patchProperty struct {
	Number   float64 `json:"number"`
	RichText []struct {
		Text struct {
			Content string `json:"content"`
		} `json:"text"`
	} `json:"rich_text"`
	Date *struct {
		Start string `json:"start"`
	} `json:"date"`
}

// newNotionServer fake a three page database, one page without a ticker
func newNotionServer(t *testing.T, patches *[]recordedPatch) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/databases/db123/query":
			w.Write([]byte(`{
				"results":[
					{"id":"page-a","properties":{"티커":{"type":"title","title":[{"plain_text":"AAPL"}]}}},
					{"id":"page-b","properties":{"티커":{"type":"title","title":[{"plain_text":" msft "}]}}},
					{"id":"page-c","properties":{"티커":{"type":"title","title":[]}}}
				],
				"has_more":false,
				"next_cursor":null
			}`))
		case r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, "/v1/pages/"):
			var request struct {
				Properties map[string]patchProperty `json:"properties"`
			}
			if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			*patches = append(*patches, recordedPatch{
				id:         strings.TrimPrefix(r.URL.Path, "/v1/pages/"),
				properties: request.Properties,
			})
			w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

// newProviderServer fake the quote and forex endpoints on one host
func newProviderServer(t *testing.T, quoteBody string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/v3/quote/"):
			w.Write([]byte(quoteBody))
		case r.URL.Path == "/api/v4/forex/last/USDKRW":
			w.Write([]byte(`{"price":1318.42}`))
		case strings.HasPrefix(r.URL.Path, "/v8/finance/chart/"):
			w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func testConfig(notionURL, providerURL string) *config.Config {
	conf := config.Default()
	conf.Notion.BaseURL = notionURL
	conf.Notion.Token = "secret"
	conf.Notion.Database = "db123"
	conf.FMP.BaseURL = providerURL
	conf.FMP.APIKey = "key123"
	conf.Yahoo.BaseURL = providerURL
	conf.ChunkIntervalMS = 1
	conf.SweepIntervalMS = 1

	return conf
}

func TestRefresher_Run(t *testing.T) {
	var patches []recordedPatch
	notion := newNotionServer(t, &patches)
	defer notion.Close()

	provider := newProviderServer(t, `[
		{"symbol":"AAPL","name":"Apple Inc.","price":187.5,"previousClose":185.0,"marketCap":250000000000},
		{"symbol":"MSFT","name":"Microsoft Corporation","price":415.3,"previousClose":411.2,"marketCap":3090000000000}
	]`)
	defer provider.Close()

	refresher := NewRefresher(testConfig(notion.URL, provider.URL), false)

	summary, err := refresher.Run(context.Background())
	if err != nil {
		t.Errorf("Run() error = %v", err)
		return
	}

	want := recorder.Summary{OK: 2, Failed: 0, Skipped: 1}
	if summary != want {
		t.Errorf("Run() = %+v, want %+v", summary, want)
	}

	if len(patches) != 2 {
		t.Errorf("Run() wrote %d pages, want 2", len(patches))
		return
	}

	if patches[0].id != "page-a" || patches[1].id != "page-b" {
		t.Errorf("Run() wrote pages %s, %s, want page-a, page-b", patches[0].id, patches[1].id)
	}

	apple := patches[0].properties
	if apple["현재가"].Number != 187.5 {
		t.Errorf("Run() wrote price %v, want 187.5", apple["현재가"].Number)
	}

	if apple["전일종가"].Number != 185.0 {
		t.Errorf("Run() wrote previous close %v, want 185.0", apple["전일종가"].Number)
	}

	if apple["시가총액"].Number != 2500 {
		t.Errorf("Run() wrote market cap %v, want 2500", apple["시가총액"].Number)
	}

	if apple["USDKRW"].Number != 1318.42 {
		t.Errorf("Run() wrote fx rate %v, want 1318.42", apple["USDKRW"].Number)
	}

	if len(apple["종목명"].RichText) == 0 || apple["종목명"].RichText[0].Text.Content != "Apple Inc." {
		t.Errorf("Run() wrote name %+v, want Apple Inc.", apple["종목명"].RichText)
	}

	if apple["업데이트시간"].Date == nil || apple["업데이트시간"].Date.Start == "" {
		t.Errorf("Run() wrote no update time")
	}
}

func TestRefresher_Run_DryRun(t *testing.T) {
	var patches []recordedPatch
	notion := newNotionServer(t, &patches)
	defer notion.Close()

	provider := newProviderServer(t, `[
		{"symbol":"AAPL","name":"Apple Inc.","price":187.5,"previousClose":185.0,"marketCap":250000000000},
		{"symbol":"MSFT","name":"Microsoft Corporation","price":415.3,"previousClose":411.2,"marketCap":3090000000000}
	]`)
	defer provider.Close()

	refresher := NewRefresher(testConfig(notion.URL, provider.URL), true)

	summary, err := refresher.Run(context.Background())
	if err != nil {
		t.Errorf("Run() error = %v", err)
		return
	}

	if summary.OK != 2 {
		t.Errorf("Run() ok = %d, want 2", summary.OK)
	}

	if len(patches) != 0 {
		t.Errorf("Run() wrote %d pages in dry run, want 0", len(patches))
	}
}

func TestRefresher_Run_NothingResolved(t *testing.T) {
	var patches []recordedPatch
	notion := newNotionServer(t, &patches)
	defer notion.Close()

	// the quote endpoint knows nothing, the chart endpoint knows nothing
	provider := newProviderServer(t, `[]`)
	defer provider.Close()

	refresher := NewRefresher(testConfig(notion.URL, provider.URL), false)

	_, err := refresher.Run(context.Background())
	if !errors.Is(err, constants.ErrNothingResolved) {
		t.Errorf("Run() error = %v, want %v", err, constants.ErrNothingResolved)
	}

	if len(patches) != 0 {
		t.Errorf("Run() wrote %d pages, want 0", len(patches))
	}
}

func TestRefresher_Run_NoUsableSymbols(t *testing.T) {
	// every page is missing its ticker title, the run still completes
	notion := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/v1/databases/db123/query" {
			w.Write([]byte(`{
				"results":[
					{"id":"page-a","properties":{"티커":{"type":"title","title":[]}}},
					{"id":"page-b","properties":{"티커":{"type":"title","title":[]}}}
				],
				"has_more":false,
				"next_cursor":null
			}`))
			return
		}

		w.WriteHeader(http.StatusNotFound)
	}))
	defer notion.Close()

	provider := newProviderServer(t, `[]`)
	defer provider.Close()

	refresher := NewRefresher(testConfig(notion.URL, provider.URL), false)

	summary, err := refresher.Run(context.Background())
	if err != nil {
		t.Errorf("Run() error = %v, want the run to complete", err)
		return
	}

	want := recorder.Summary{OK: 0, Failed: 0, Skipped: 2}
	if summary != want {
		t.Errorf("Run() = %+v, want %+v", summary, want)
	}
}

func TestRefresher_Run_ListFailure(t *testing.T) {
	notion := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer notion.Close()

	provider := newProviderServer(t, `[]`)
	defer provider.Close()

	refresher := NewRefresher(testConfig(notion.URL, provider.URL), false)

	_, err := refresher.Run(context.Background())
	if err == nil {
		t.Errorf("Run() error = nil, want list failure")
	}
}
