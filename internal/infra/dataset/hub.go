package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
)

const (
	defaultHubURL   = "https://datasets-server.huggingface.co"
	defaultSubset   = "default"
	defaultPageSize = 100
	maxPageSize     = 100
)

// HubSource pages through the Hugging Face datasets-server rows API.
type HubSource struct {
	baseURL    string
	token      string
	subset     string
	pageSize   int
	httpClient *http.Client
}

// NewHubSource builds an API client.
func NewHubSource(baseURL, token, subset string, pageSize int) *HubSource {
	u := strings.TrimSpace(baseURL)
	if u == "" {
		u = defaultHubURL
	}
	if strings.TrimSpace(subset) == "" {
		subset = defaultSubset
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return &HubSource{
		baseURL:  strings.TrimRight(u, "/"),
		token:    strings.TrimSpace(token),
		subset:   subset,
		pageSize: pageSize,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Load implements faq.DatasetSource.
func (s *HubSource) Load(ctx context.Context, name, split string) ([]faq.Record, error) {
	var (
		out    []faq.Record
		offset int
	)
	for {
		page, err := s.fetchPage(ctx, name, split, offset)
		if err != nil {
			return nil, err
		}
		for _, row := range page.Rows {
			out = append(out, faq.Record(row.Row))
		}
		offset += len(page.Rows)
		if len(page.Rows) == 0 || offset >= page.NumRowsTotal {
			break
		}
	}
	return out, nil
}

type rowsResponse struct {
	Rows         []rowEntry `json:"rows"`
	NumRowsTotal int        `json:"num_rows_total"`
	Error        string     `json:"error"`
}

type rowEntry struct {
	RowIdx int            `json:"row_idx"`
	Row    map[string]any `json:"row"`
}

func (s *HubSource) fetchPage(ctx context.Context, name, split string, offset int) (rowsResponse, error) {
	params := url.Values{}
	params.Set("dataset", name)
	params.Set("config", s.subset)
	params.Set("split", split)
	params.Set("offset", strconv.Itoa(offset))
	params.Set("length", strconv.Itoa(s.pageSize))
	endpoint := s.baseURL + "/rows?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return rowsResponse{}, fmt.Errorf("build dataset request: %w", err)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return rowsResponse{}, fmt.Errorf("dataset request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return rowsResponse{}, fmt.Errorf("dataset request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	var page rowsResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return rowsResponse{}, fmt.Errorf("decode dataset response: %w", err)
	}
	if page.Error != "" {
		return rowsResponse{}, fmt.Errorf("dataset api error: %s", page.Error)
	}
	return page, nil
}

var _ faq.DatasetSource = (*HubSource)(nil)
