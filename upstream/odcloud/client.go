package odcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kdata-labs/realestate-mcp/instrumentation"
)

const (
	defaultBaseURL  = "https://api.odcloud.kr/api"
	defaultTimeout  = 15 * time.Second
	maxResponseSize = 8 << 20

	// The subscription notice dataset is published under a fixed UDDI path
	subscriptionNoticePath = "/15101046/v1/uddi:14a46595-03dd-47d3-a418-d64e52820598"

	applyhomeStatPath = "/ApplyhomeStatSvc/v1"
)

// StatKind selects an ApplyhomeStatSvc endpoint
type StatKind string

const (
	StatRequestsByArea   StatKind = "reqst_area"
	StatRequestsByAge    StatKind = "reqst_age"
	StatWinnersByArea    StatKind = "przwner_area"
	StatWinnersByAge     StatKind = "przwner_age"
	StatCompetitionRates StatKind = "cmpetrt_area"
	StatScoreWinners     StatKind = "aps_przwner"
)

var statEndpoints = map[StatKind]string{
	StatRequestsByArea:   "getAPTReqstAreaStat",
	StatRequestsByAge:    "getAPTReqstAgeStat",
	StatWinnersByArea:    "getAPTPrzwnerAreaStat",
	StatWinnersByAge:     "getAPTPrzwnerAgeStat",
	StatCompetitionRates: "getAPTCmpetrtAreaStat",
	StatScoreWinners:     "getAPTApsPrzwnerStat",
}

// StatFilters narrow a statistics query. Zero-value fields are omitted and
// map to the odcloud cond[...::EQ] query syntax.
type StatFilters struct {
	StatYearMonth string // YYYYMM, maps to STAT_DE
	AreaCode      string // maps to SUBSCRPT_AREA_CODE
	ResideCode    string // maps to RESIDE_SECD
}

// Page is the common odcloud pagination envelope
type Page struct {
	TotalCount   int              `json:"total_count"`
	Items        []map[string]any `json:"items"`
	PageNo       int              `json:"page"`
	PerPage      int              `json:"per_page"`
	CurrentCount int              `json:"current_count"`
	MatchCount   int              `json:"match_count"`
}

// StatPage is a statistics page tagged with the kind that produced it
type StatPage struct {
	StatKind StatKind `json:"stat_kind"`
	Page
}

// rawPage mirrors the odcloud JSON response
type rawPage struct {
	TotalCount   int              `json:"totalCount"`
	Data         []map[string]any `json:"data"`
	Page         int              `json:"page"`
	PerPage      int              `json:"perPage"`
	CurrentCount int              `json:"currentCount"`
	MatchCount   int              `json:"matchCount"`
}

// Client calls the odcloud APIs. Authentication is either a decoded API key
// sent in the Authorization header or a service key sent as a query
// parameter; the header form wins when both are configured.
type Client struct {
	apiKey     string
	serviceKey string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the API base URL (used in tests)
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics attaches metric recording
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates an odcloud client. Either key may be empty; calls fail
// when neither is set.
func NewClient(apiKey, serviceKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		serviceKey: serviceKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubscriptionNotices returns Applyhome APT subscription notice metadata:
// notice numbers, house names, locations and schedule dates.
func (c *Client) SubscriptionNotices(ctx context.Context, page, perPage int) (*Page, error) {
	params := c.pageParams(page, perPage)
	raw, err := c.fetch(ctx, "subscription_notices", subscriptionNoticePath, params)
	if err != nil {
		return nil, err
	}
	return toPage(raw, page, perPage), nil
}

// SubscriptionStats returns one of the ApplyhomeStatSvc aggregate datasets
func (c *Client) SubscriptionStats(ctx context.Context, kind StatKind, filters StatFilters, page, perPage int) (*StatPage, error) {
	endpoint, ok := statEndpoints[kind]
	if !ok {
		return nil, fmt.Errorf("unknown stat kind %q", kind)
	}

	params := c.pageParams(page, perPage)
	if filters.StatYearMonth != "" {
		params.Set("cond[STAT_DE::EQ]", filters.StatYearMonth)
	}
	if filters.AreaCode != "" {
		params.Set("cond[SUBSCRPT_AREA_CODE::EQ]", filters.AreaCode)
	}
	if filters.ResideCode != "" {
		params.Set("cond[RESIDE_SECD::EQ]", filters.ResideCode)
	}

	raw, err := c.fetch(ctx, "subscription_stats_"+string(kind), applyhomeStatPath+"/"+endpoint, params)
	if err != nil {
		return nil, err
	}
	return &StatPage{StatKind: kind, Page: *toPage(raw, page, perPage)}, nil
}

func (c *Client) pageParams(page, perPage int) url.Values {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 100
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("perPage", strconv.Itoa(perPage))
	params.Set("returnType", "JSON")
	if c.apiKey == "" && c.serviceKey != "" {
		params.Set("serviceKey", c.serviceKey)
	}
	return params
}

func (c *Client) fetch(ctx context.Context, operation, path string, params url.Values) (*rawPage, error) {
	if c.apiKey == "" && c.serviceKey == "" {
		return nil, fmt.Errorf("ODCLOUD_API_KEY or ODCLOUD_SERVICE_KEY is not configured")
	}

	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0
	if err != nil {
		c.metrics.RecordUpstreamCall(ctx, "odcloud", operation, 0, durationMs, err)
		c.logger.Warn("odcloud request failed", "operation", operation, "error", err)
		return nil, fmt.Errorf("odcloud request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.metrics.RecordUpstreamCall(ctx, "odcloud", operation, resp.StatusCode, durationMs, nil)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("odcloud request failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var raw rawPage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("JSON parse failed: %w", err)
	}
	return &raw, nil
}

func toPage(raw *rawPage, page, perPage int) *Page {
	out := &Page{
		TotalCount:   raw.TotalCount,
		Items:        raw.Data,
		PageNo:       raw.Page,
		PerPage:      raw.PerPage,
		CurrentCount: raw.CurrentCount,
		MatchCount:   raw.MatchCount,
	}
	if out.Items == nil {
		out.Items = []map[string]any{}
	}
	if out.PageNo == 0 {
		out.PageNo = page
	}
	if out.PerPage == 0 {
		out.PerPage = perPage
	}
	return out
}
