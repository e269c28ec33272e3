package onbid

import (
	"context"
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
	// Bid result services live on the data.go.kr gateway; the thing info
	// and code lookup services on the legacy Onbid host. Neither supports
	// TLS on these paths.
	defaultBidResultBaseURL = "http://apis.data.go.kr/B010003"
	defaultOnbidBaseURL     = "http://openapi.onbid.co.kr/openapi/services"

	defaultTimeout  = 15 * time.Second
	maxResponseSize = 8 << 20

	epBidResultList   = "OnbidCltrBidRsltListSrvc/getCltrBidRsltList"
	epBidResultDetail = "OnbidCltrBidRsltDtlSrvc/getCltrBidRsltDtl"
	epThingInfoList   = "ThingInfoInquireSvc/getUnifyUsageCltr"
	epCodeTop         = "OnbidCodeInfoInquireSvc/getOnbidTopCodeInfo"
	epCodeMiddle      = "OnbidCodeInfoInquireSvc/getOnbidMiddleCodeInfo"
	epCodeBottom      = "OnbidCodeInfoInquireSvc/getOnbidBottomCodeInfo"
	epAddr1           = "OnbidCodeInfoInquireSvc/getOnbidAddr1Info"
	epAddr2           = "OnbidCodeInfoInquireSvc/getOnbidAddr2Info"
	epAddr3           = "OnbidCodeInfoInquireSvc/getOnbidAddr3Info"
	epDetailAddr      = "OnbidCodeInfoInquireSvc/getOnbidDtlAddrInfo"
)

// BidResultQuery filters the bid result list. Zero-value fields are omitted.
type BidResultQuery struct {
	ItemTypeCode        string // cltrTypeCd, e.g. "0001" real estate
	PropertyDivCode     string // prptDivCd
	DisposalMethodCode  string // dspsMthodCd, "0001" sale / "0002" lease
	BidDivCode          string // bidDivCd
	Sido                string // lctnSdnm
	Sigungu             string // lctnSggnm
	Emd                 string // lctnEmdNm
	OpenDateStart       string // opbdDtStart, yyyyMMdd
	OpenDateEnd         string // opbdDtEnd
	AppraisalAmtStart   int64  // apslEvlAmtStart, won
	AppraisalAmtEnd     int64
	LowestBidPriceStart int64 // lowstBidPrcStart, won
	LowestBidPriceEnd   int64
	BidStatusCode       string // pbctStatCd
	ItemName            string // onbidCltrNm keyword
}

// ThingInfoQuery filters the unified usage item list. Zero-value fields are
// omitted. Category and address values come from the code lookup calls.
type ThingInfoQuery struct {
	DisposalMethodCode string // DPSL_MTD_CD, "0001" sale / "0002" lease
	CategoryID         string // CTGR_HIRK_ID
	CategoryMidID      string // CTGR_HIRK_ID_MID
	Sido               string
	Sigungu            string // SGK
	Emd                string
	AppraisalFrom      int64 // GOODS_PRICE_FROM, won
	AppraisalTo        int64
	LowestBidFrom      int64 // OPEN_PRICE_FROM, won
	LowestBidTo        int64
	BidBeginDate       string // PBCT_BEGN_DTM, YYYYMMDD
	BidCloseDate       string // PBCT_CLS_DTM
	ItemName           string // CLTR_NM keyword
}

// BidResultPage holds bid result records as raw field maps
type BidResultPage struct {
	TotalCount int              `json:"total_count"`
	Items      []map[string]any `json:"items"`
	PageNo     int              `json:"page_no"`
	NumOfRows  int              `json:"num_of_rows"`
}

// RecordPage holds XML-sourced records as raw tag to text maps
type RecordPage struct {
	TotalCount int                 `json:"total_count"`
	Items      []map[string]string `json:"items"`
	PageNo     int                 `json:"page_no"`
	NumOfRows  int                 `json:"num_of_rows"`
}

// Client calls the Onbid public auction APIs
type Client struct {
	serviceKey       string
	bidResultBaseURL string
	onbidBaseURL     string
	httpClient       *http.Client
	logger           *slog.Logger
	metrics          *instrumentation.Metrics
}

// Option configures a Client
type Option func(*Client)

// WithBidResultBaseURL overrides the data.go.kr base URL (used in tests)
func WithBidResultBaseURL(baseURL string) Option {
	return func(c *Client) { c.bidResultBaseURL = baseURL }
}

// WithOnbidBaseURL overrides the openapi.onbid.co.kr base URL (used in tests)
func WithOnbidBaseURL(baseURL string) Option {
	return func(c *Client) { c.onbidBaseURL = baseURL }
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

// NewClient creates an Onbid client. serviceKey is the ONBID_API_KEY or the
// shared data.go.kr key; an empty key fails on first call.
func NewClient(serviceKey string, opts ...Option) *Client {
	c := &Client{
		serviceKey:       serviceKey,
		bidResultBaseURL: defaultBidResultBaseURL,
		onbidBaseURL:     defaultOnbidBaseURL,
		httpClient:       &http.Client{Timeout: defaultTimeout},
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BidResults returns the next-generation bid result list for public auction
// items, with won/lost outcomes and opening dates.
func (c *Client) BidResults(ctx context.Context, query BidResultQuery, pageNo, numOfRows int) (*BidResultPage, error) {
	params := pagingParams(pageNo, numOfRows)
	params.Set("resultType", "json")
	setIf(params, "cltrTypeCd", query.ItemTypeCode)
	setIf(params, "prptDivCd", query.PropertyDivCode)
	setIf(params, "dspsMthodCd", query.DisposalMethodCode)
	setIf(params, "bidDivCd", query.BidDivCode)
	setIf(params, "lctnSdnm", query.Sido)
	setIf(params, "lctnSggnm", query.Sigungu)
	setIf(params, "lctnEmdNm", query.Emd)
	setIf(params, "opbdDtStart", query.OpenDateStart)
	setIf(params, "opbdDtEnd", query.OpenDateEnd)
	setIfInt(params, "apslEvlAmtStart", query.AppraisalAmtStart)
	setIfInt(params, "apslEvlAmtEnd", query.AppraisalAmtEnd)
	setIfInt(params, "lowstBidPrcStart", query.LowestBidPriceStart)
	setIfInt(params, "lowstBidPrcEnd", query.LowestBidPriceEnd)
	setIf(params, "pbctStatCd", query.BidStatusCode)
	setIf(params, "onbidCltrNm", query.ItemName)

	return c.fetchJSON(ctx, "bid_results", c.bidResultBaseURL, epBidResultList, params, pageNo, numOfRows)
}

// BidResultDetail returns the bid result detail for one item, identified by
// its management number and auction condition number.
func (c *Client) BidResultDetail(ctx context.Context, itemMgmtNo, auctionCondNo string, pageNo, numOfRows int) (*BidResultPage, error) {
	if itemMgmtNo == "" {
		return nil, fmt.Errorf("item management number is required")
	}
	if auctionCondNo == "" {
		return nil, fmt.Errorf("auction condition number is required")
	}

	params := pagingParams(pageNo, numOfRows)
	params.Set("resultType", "json")
	params.Set("cltrMngNo", itemMgmtNo)
	params.Set("pbctCdtnNo", auctionCondNo)

	return c.fetchJSON(ctx, "bid_result_detail", c.bidResultBaseURL, epBidResultDetail, params, pageNo, numOfRows)
}

// ThingInfoList returns unified usage auction items matching the query
func (c *Client) ThingInfoList(ctx context.Context, query ThingInfoQuery, pageNo, numOfRows int) (*RecordPage, error) {
	params := pagingParams(pageNo, numOfRows)
	setIf(params, "DPSL_MTD_CD", query.DisposalMethodCode)
	setIf(params, "CTGR_HIRK_ID", query.CategoryID)
	setIf(params, "CTGR_HIRK_ID_MID", query.CategoryMidID)
	setIf(params, "SIDO", query.Sido)
	setIf(params, "SGK", query.Sigungu)
	setIf(params, "EMD", query.Emd)
	setIfInt(params, "GOODS_PRICE_FROM", query.AppraisalFrom)
	setIfInt(params, "GOODS_PRICE_TO", query.AppraisalTo)
	setIfInt(params, "OPEN_PRICE_FROM", query.LowestBidFrom)
	setIfInt(params, "OPEN_PRICE_TO", query.LowestBidTo)
	setIf(params, "PBCT_BEGN_DTM", query.BidBeginDate)
	setIf(params, "PBCT_CLS_DTM", query.BidCloseDate)
	setIf(params, "CLTR_NM", query.ItemName)

	return c.fetchXML(ctx, "thing_info_list", epThingInfoList, params, pageNo, numOfRows)
}

// TopCodes returns the top-level usage category codes
func (c *Client) TopCodes(ctx context.Context, pageNo, numOfRows int) (*RecordPage, error) {
	return c.fetchXML(ctx, "code_top", epCodeTop, pagingParams(pageNo, numOfRows), pageNo, numOfRows)
}

// MiddleCodes returns the category codes under a top-level category ID
func (c *Client) MiddleCodes(ctx context.Context, categoryID string, pageNo, numOfRows int) (*RecordPage, error) {
	if categoryID == "" {
		return nil, fmt.Errorf("category ID is required")
	}
	params := pagingParams(pageNo, numOfRows)
	params.Set("CTGR_ID", categoryID)
	return c.fetchXML(ctx, "code_middle", epCodeMiddle, params, pageNo, numOfRows)
}

// BottomCodes returns the category codes under a middle-level category ID
func (c *Client) BottomCodes(ctx context.Context, categoryID string, pageNo, numOfRows int) (*RecordPage, error) {
	if categoryID == "" {
		return nil, fmt.Errorf("category ID is required")
	}
	params := pagingParams(pageNo, numOfRows)
	params.Set("CTGR_ID", categoryID)
	return c.fetchXML(ctx, "code_bottom", epCodeBottom, params, pageNo, numOfRows)
}

// Addr1 returns the province and metropolitan city list
func (c *Client) Addr1(ctx context.Context, pageNo, numOfRows int) (*RecordPage, error) {
	return c.fetchXML(ctx, "addr1", epAddr1, pagingParams(pageNo, numOfRows), pageNo, numOfRows)
}

// Addr2 returns the city and district list under a province
func (c *Client) Addr2(ctx context.Context, addr1 string, pageNo, numOfRows int) (*RecordPage, error) {
	if addr1 == "" {
		return nil, fmt.Errorf("addr1 is required")
	}
	params := pagingParams(pageNo, numOfRows)
	params.Set("ADDR1", addr1)
	return c.fetchXML(ctx, "addr2", epAddr2, params, pageNo, numOfRows)
}

// Addr3 returns the town list under a district
func (c *Client) Addr3(ctx context.Context, addr2 string, pageNo, numOfRows int) (*RecordPage, error) {
	if addr2 == "" {
		return nil, fmt.Errorf("addr2 is required")
	}
	params := pagingParams(pageNo, numOfRows)
	params.Set("ADDR2", addr2)
	return c.fetchXML(ctx, "addr3", epAddr3, params, pageNo, numOfRows)
}

// DetailAddrs returns detailed addresses under a town
func (c *Client) DetailAddrs(ctx context.Context, addr3 string, pageNo, numOfRows int) (*RecordPage, error) {
	if addr3 == "" {
		return nil, fmt.Errorf("addr3 is required")
	}
	params := pagingParams(pageNo, numOfRows)
	params.Set("ADDR3", addr3)
	return c.fetchXML(ctx, "detail_addrs", epDetailAddr, params, pageNo, numOfRows)
}

func pagingParams(pageNo, numOfRows int) url.Values {
	if pageNo < 1 {
		pageNo = 1
	}
	if numOfRows < 1 {
		numOfRows = 20
	}
	params := url.Values{}
	params.Set("pageNo", strconv.Itoa(pageNo))
	params.Set("numOfRows", strconv.Itoa(numOfRows))
	return params
}

func setIf(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}

func setIfInt(params url.Values, key string, value int64) {
	if value > 0 {
		params.Set(key, strconv.FormatInt(value, 10))
	}
}

func (c *Client) fetchJSON(ctx context.Context, operation, baseURL, endpoint string, params url.Values, pageNo, numOfRows int) (*BidResultPage, error) {
	data, err := c.get(ctx, operation, baseURL, endpoint, params)
	if err != nil {
		return nil, err
	}

	env, err := decodeJSONResponse(data)
	if err != nil {
		return nil, err
	}

	page := &BidResultPage{
		TotalCount: env.totalCount,
		Items:      env.items,
		PageNo:     env.pageNo,
		NumOfRows:  env.numOfRows,
	}
	if page.PageNo == 0 {
		page.PageNo = pageNo
	}
	if page.NumOfRows == 0 {
		page.NumOfRows = numOfRows
	}
	return page, nil
}

func (c *Client) fetchXML(ctx context.Context, operation, endpoint string, params url.Values, pageNo, numOfRows int) (*RecordPage, error) {
	data, err := c.get(ctx, operation, c.onbidBaseURL, endpoint, params)
	if err != nil {
		return nil, err
	}

	list, err := decodeXMLResponse(data)
	if err != nil {
		return nil, err
	}

	return &RecordPage{
		TotalCount: list.totalCount,
		Items:      list.items,
		PageNo:     pageNo,
		NumOfRows:  numOfRows,
	}, nil
}

// get performs one API call with the pre-encoded serviceKey embedded
// directly in the query string.
func (c *Client) get(ctx context.Context, operation, baseURL, endpoint string, params url.Values) ([]byte, error) {
	if c.serviceKey == "" {
		return nil, fmt.Errorf("ONBID_API_KEY (or DATA_GO_KR_API_KEY) is not configured")
	}

	reqURL := fmt.Sprintf("%s/%s?serviceKey=%s&%s",
		baseURL, endpoint, url.QueryEscape(c.serviceKey), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0
	if err != nil {
		c.metrics.RecordUpstreamCall(ctx, "onbid", operation, 0, durationMs, err)
		c.logger.Warn("onbid request failed", "operation", operation, "error", err)
		return nil, fmt.Errorf("onbid request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.metrics.RecordUpstreamCall(ctx, "onbid", operation, resp.StatusCode, durationMs, nil)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("onbid request failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return data, nil
}
