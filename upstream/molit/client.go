package molit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/kdata-labs/realestate-mcp/instrumentation"
)

const (
	defaultBaseURL = "https://apis.data.go.kr/1613000"
	defaultTimeout = 15 * time.Second

	// maxResponseBytes caps upstream response bodies
	maxResponseBytes = 8 << 20
)

// Endpoint path segments under the RTMS base URL
const (
	epAptTrade        = "RTMSDataSvcAptTrade/getRTMSDataSvcAptTrade"
	epAptRent         = "RTMSDataSvcAptRent/getRTMSDataSvcAptRent"
	epOffiTrade       = "RTMSDataSvcOffiTrade/getRTMSDataSvcOffiTrade"
	epOffiRent        = "RTMSDataSvcOffiRent/getRTMSDataSvcOffiRent"
	epVillaTrade      = "RTMSDataSvcRHTrade/getRTMSDataSvcRHTrade"
	epVillaRent       = "RTMSDataSvcRHRent/getRTMSDataSvcRHRent"
	epSingleTrade     = "RTMSDataSvcSHTrade/getRTMSDataSvcSHTrade"
	epSingleRent      = "RTMSDataSvcSHRent/getRTMSDataSvcSHRent"
	epCommercialTrade = "RTMSDataSvcNrgTrade/getRTMSDataSvcNrgTrade"
)

// Client calls the MOLIT RTMS APIs
type Client struct {
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

// NewClient creates an RTMS client. serviceKey is the data.go.kr key; an
// empty key is allowed at construction and fails on first call, so the
// server can start without MOLIT credentials configured.
func NewClient(serviceKey string, opts ...Option) *Client {
	c := &Client{
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

// AptTrades returns apartment sale records for a region and month
func (c *Client) AptTrades(ctx context.Context, regionCode, yearMonth string, numRows int) (*TradeResult, error) {
	return c.trades(ctx, epAptTrade, "apt_trade", regionCode, yearMonth, numRows,
		tradeOptions{unitName: unitNameApt})
}

// OfficetelTrades returns officetel sale records
func (c *Client) OfficetelTrades(ctx context.Context, regionCode, yearMonth string, numRows int) (*TradeResult, error) {
	return c.trades(ctx, epOffiTrade, "officetel_trade", regionCode, yearMonth, numRows,
		tradeOptions{unitName: unitNameOffi})
}

// VillaTrades returns row-house / multi-family sale records
func (c *Client) VillaTrades(ctx context.Context, regionCode, yearMonth string, numRows int) (*TradeResult, error) {
	return c.trades(ctx, epVillaTrade, "villa_trade", regionCode, yearMonth, numRows,
		tradeOptions{unitName: unitNameMhouse, includeHouse: true})
}

// SingleHouseTrades returns detached / multi-unit house sale records.
// These records carry no unit name or floor; area is gross floor area.
func (c *Client) SingleHouseTrades(ctx context.Context, regionCode, yearMonth string, numRows int) (*TradeResult, error) {
	return c.trades(ctx, epSingleTrade, "single_house_trade", regionCode, yearMonth, numRows,
		tradeOptions{unitName: unitNameNone, includeHouse: true, grossArea: true, noFloor: true})
}

// CommercialTrades returns commercial building sale records
func (c *Client) CommercialTrades(ctx context.Context, regionCode, yearMonth string, numRows int) (*CommercialResult, error) {
	resp, err := c.fetch(ctx, epCommercialTrade, "commercial_trade", regionCode, yearMonth, numRows)
	if err != nil {
		return nil, err
	}

	items := mapCommercialItems(resp.Body.Items.Items)
	prices := make([]int, len(items))
	for i, it := range items {
		prices[i] = it.Price10k
	}

	return &CommercialResult{
		TotalCount: resp.Body.TotalCount,
		Items:      items,
		Summary:    buildTradeSummary(prices),
	}, nil
}

// AptRents returns apartment lease records
func (c *Client) AptRents(ctx context.Context, regionCode, yearMonth string, numRows int) (*RentResult, error) {
	return c.rents(ctx, epAptRent, "apt_rent", regionCode, yearMonth, numRows,
		tradeOptions{unitName: unitNameApt})
}

// OfficetelRents returns officetel lease records
func (c *Client) OfficetelRents(ctx context.Context, regionCode, yearMonth string, numRows int) (*RentResult, error) {
	return c.rents(ctx, epOffiRent, "officetel_rent", regionCode, yearMonth, numRows,
		tradeOptions{unitName: unitNameOffi})
}

// VillaRents returns row-house / multi-family lease records
func (c *Client) VillaRents(ctx context.Context, regionCode, yearMonth string, numRows int) (*RentResult, error) {
	return c.rents(ctx, epVillaRent, "villa_rent", regionCode, yearMonth, numRows,
		tradeOptions{unitName: unitNameMhouse, includeHouse: true})
}

// SingleHouseRents returns detached / multi-unit house lease records
func (c *Client) SingleHouseRents(ctx context.Context, regionCode, yearMonth string, numRows int) (*RentResult, error) {
	return c.rents(ctx, epSingleRent, "single_house_rent", regionCode, yearMonth, numRows,
		tradeOptions{unitName: unitNameNone, includeHouse: true, grossArea: true, noFloor: true})
}

func (c *Client) trades(ctx context.Context, endpoint, operation, regionCode, yearMonth string, numRows int, opts tradeOptions) (*TradeResult, error) {
	resp, err := c.fetch(ctx, endpoint, operation, regionCode, yearMonth, numRows)
	if err != nil {
		return nil, err
	}

	items := mapTradeItems(resp.Body.Items.Items, opts)
	prices := make([]int, len(items))
	for i, it := range items {
		prices[i] = it.Price10k
	}

	return &TradeResult{
		TotalCount: resp.Body.TotalCount,
		Items:      items,
		Summary:    buildTradeSummary(prices),
	}, nil
}

func (c *Client) rents(ctx context.Context, endpoint, operation, regionCode, yearMonth string, numRows int, opts tradeOptions) (*RentResult, error) {
	resp, err := c.fetch(ctx, endpoint, operation, regionCode, yearMonth, numRows)
	if err != nil {
		return nil, err
	}

	items := mapRentItems(resp.Body.Items.Items, opts)

	return &RentResult{
		TotalCount: resp.Body.TotalCount,
		Items:      items,
		Summary:    buildRentSummary(items),
	}, nil
}

// fetch performs one RTMS API call and decodes the envelope
func (c *Client) fetch(ctx context.Context, endpoint, operation, regionCode, yearMonth string, numRows int) (*rawResponse, error) {
	if c.serviceKey == "" {
		return nil, fmt.Errorf("DATA_GO_KR_API_KEY is not configured")
	}
	if numRows <= 0 {
		numRows = 100
	}

	// The serviceKey is embedded pre-encoded: data.go.kr issues keys that
	// are already percent-encoded, and url.Values would double-encode them.
	reqURL := fmt.Sprintf("%s/%s?serviceKey=%s&LAWD_CD=%s&DEAL_YMD=%s&numOfRows=%d&pageNo=1",
		c.baseURL, endpoint,
		url.QueryEscape(c.serviceKey),
		url.QueryEscape(regionCode),
		url.QueryEscape(yearMonth),
		numRows)

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0
	if err != nil {
		c.metrics.RecordUpstreamCall(ctx, "molit", operation, 0, durationMs, err)
		c.logger.Warn("molit request failed", "operation", operation, "error", err)
		return nil, fmt.Errorf("molit request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.metrics.RecordUpstreamCall(ctx, "molit", operation, resp.StatusCode, durationMs, nil)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("molit request failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return decodeResponse(data)
}
