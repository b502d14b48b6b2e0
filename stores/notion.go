package stores

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/njkim/stocksync/constants"
	"github.com/njkim/stocksync/quotes"
	"go.uber.org/zap"
)

// notionVersion define the pinned api version header
const notionVersion = "2022-06-28"

// notionPageSize define database query page size
const notionPageSize = 100

// NotionSchema map quote fields to database property names. Property names
// are configuration, not algorithm; empty optional names disable the field.
type NotionSchema struct {
	Ticker        string
	CurrentPrice  string
	PreviousClose string
	MarketCap     string
	UpdatedAt     string
	Name          string
	FxRate        string
}

// Notion notion database backed record store. Writes go through the plain
// http client, the retrying get transport is for idempotent provider reads.
type Notion struct {
	client   *http.Client
	baseURL  string
	token    string
	database string
	schema   NotionSchema
}

// NewNotion create notion record store
func NewNotion(baseURL, token, database string, schema NotionSchema) *Notion {
	return &Notion{
		client:   &http.Client{Timeout: constants.RequestTimeout},
		baseURL:  baseURL,
		token:    token,
		database: database,
		schema:   schema,
	}
}

// ListRecords enumerate all database pages, driving cursor pagination until
// the store signals no more pages
func (s *Notion) ListRecords(ctx context.Context) ([]Record, error) {
	var records []Record
	cursor := ""
	for {
		page, err := s.queryPage(ctx, cursor)
		if err != nil {
			zap.L().Error("query notion database failed",
				zap.Error(err),
				zap.String("database", s.database))
			return nil, err
		}

		for _, result := range page.Results {
			records = append(records, Record{
				ID:     result.ID,
				Symbol: s.symbolOf(result.Properties),
			})
		}

		if !page.HasMore || page.NextCursor == "" {
			break
		}

		cursor = page.NextCursor
	}

	zap.L().Info("list notion records success",
		zap.String("database", s.database),
		zap.Int("records", len(records)))

	return records, nil
}

// UpdateRecord write quote fields to one page. Writing the same fields twice
// leaves the page in the same state.
func (s *Notion) UpdateRecord(ctx context.Context, id string, fields Fields) error {
	properties := map[string]any{}

	if s.schema.CurrentPrice != "" {
		properties[s.schema.CurrentPrice] = numberProperty(fields.CurrentPrice)
	}

	if s.schema.PreviousClose != "" {
		properties[s.schema.PreviousClose] = numberProperty(fields.PreviousClose)
	}

	if s.schema.MarketCap != "" {
		properties[s.schema.MarketCap] = numberProperty(float64(fields.MarketCapUnits))
	}

	if s.schema.UpdatedAt != "" && !fields.UpdatedAt.IsZero() {
		properties[s.schema.UpdatedAt] = dateProperty(fields.UpdatedAt)
	}

	if s.schema.Name != "" && fields.Name != "" {
		properties[s.schema.Name] = textProperty(fields.Name)
	}

	if s.schema.FxRate != "" && fields.FxRate > 0 {
		properties[s.schema.FxRate] = numberProperty(fields.FxRate)
	}

	url := fmt.Sprintf("%s/v1/pages/%s", s.baseURL, id)
	err := s.do(ctx, http.MethodPatch, url, map[string]any{"properties": properties}, nil)
	if err != nil {
		return err
	}

	return nil
}

// notionQueryRequest define database query request body
type notionQueryRequest struct {
	StartCursor string `json:"start_cursor,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
}

// notionQueryResponse define database query response
type notionQueryResponse struct {
	Results []struct {
		ID         string                    `json:"id"`
		Properties map[string]notionProperty `json:"properties"`
	} `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// notionProperty carry the property shapes the store reads
type notionProperty struct {
	Type  string `json:"type"`
	Title []struct {
		PlainText string `json:"plain_text"`
	} `json:"title"`
}

// queryPage fetch one page of database records
func (s *Notion) queryPage(ctx context.Context, cursor string) (*notionQueryResponse, error) {
	url := fmt.Sprintf("%s/v1/databases/%s/query", s.baseURL, s.database)
	request := notionQueryRequest{StartCursor: cursor, PageSize: notionPageSize}

	response := new(notionQueryResponse)
	err := s.do(ctx, http.MethodPost, url, request, response)
	if err != nil {
		return nil, err
	}

	return response, nil
}

// symbolOf extract the normalized ticker from the title property
func (s *Notion) symbolOf(properties map[string]notionProperty) string {
	property, ok := properties[s.schema.Ticker]
	if !ok || len(property.Title) == 0 {
		return ""
	}

	return quotes.NormalizeSymbol(property.Title[0].PlainText)
}

// do send one api request and decode the response when asked
func (s *Notion) do(ctx context.Context, method, url string, payload, response any) error {
	body, err := sonic.ConfigFastest.Marshal(payload)
	if err != nil {
		zap.L().Error("marshal notion request failed", zap.Error(err), zap.String("url", url))
		return err
	}

	request, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		zap.L().Error("create notion request failed", zap.Error(err), zap.String("url", url))
		return err
	}

	request.Header.Set("Authorization", "Bearer "+s.token)
	request.Header.Set("Notion-Version", notionVersion)
	request.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(request)
	if err != nil {
		zap.L().Error("do notion request failed", zap.Error(err), zap.String("url", url))
		return err
	}
	defer resp.Body.Close()

	buffer, err := io.ReadAll(resp.Body)
	if err != nil {
		zap.L().Error("read notion response failed", zap.Error(err), zap.String("url", url))
		return err
	}

	if resp.StatusCode != http.StatusOK {
		zap.L().Warn("notion api returned unexpected status",
			zap.Int("code", resp.StatusCode),
			zap.String("url", url),
			zap.ByteString("body", buffer))
		return fmt.Errorf("%w (%d) %s", constants.ErrUnexpectedStatusCode, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	if response == nil {
		return nil
	}

	err = sonic.ConfigFastest.Unmarshal(buffer, response)
	if err != nil {
		zap.L().Error("unmarshal notion response failed",
			zap.Error(err),
			zap.String("url", url),
			zap.ByteString("body", buffer))
		return err
	}

	return nil
}

// numberProperty build a number property value
func numberProperty(value float64) map[string]any {
	return map[string]any{"number": value}
}

// dateProperty build a date property value
func dateProperty(at time.Time) map[string]any {
	return map[string]any{"date": map[string]any{"start": at.Format(time.RFC3339)}}
}

// textProperty build a rich text property value
func textProperty(value string) map[string]any {
	return map[string]any{
		"rich_text": []map[string]any{
			{"text": map[string]any{"content": value}},
		},
	}
}
