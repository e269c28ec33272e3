package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kdata-labs/realestate-mcp/upstream/molit"
	"github.com/kdata-labs/realestate-mcp/upstream/odcloud"
	"github.com/kdata-labs/realestate-mcp/upstream/onbid"
)

// Handler holds the upstream clients behind the MCP tools
type Handler struct {
	molit   *molit.Client
	odcloud *odcloud.Client
	onbid   *onbid.Client
	logger  *slog.Logger
	now     func() time.Time
}

// NewHandler creates the tool handler. Any client may be nil; its tools
// then report a configuration error instead of failing at startup.
func NewHandler(molitClient *molit.Client, odcloudClient *odcloud.Client, onbidClient *onbid.Client, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		molit:   molitClient,
		odcloud: odcloudClient,
		onbid:   onbidClient,
		logger:  logger,
		now:     time.Now,
	}
}

// molitTradeFunc adapts one trade endpoint for the shared handler
type molitTradeFunc func(ctx context.Context, regionCode, yearMonth string, numRows int) (*molit.TradeResult, error)

type molitRentFunc func(ctx context.Context, regionCode, yearMonth string, numRows int) (*molit.RentResult, error)

// registerTools adds every tool to the MCP server
func registerTools(s *server.MCPServer, h *Handler) {
	s.AddTool(mcp.NewTool("get_current_year_month",
		mcp.WithDescription("Return the current year and month in YYYYMM format for use with trade and rent tools."),
	), h.currentYearMonth)

	registerMolitTrade(s, h, "get_apartment_trades",
		"Apartment (아파트) sale records with price summary statistics for a region and month.",
		func(ctx context.Context, region, ym string, rows int) (*molit.TradeResult, error) {
			return h.molit.AptTrades(ctx, region, ym, rows)
		})
	registerMolitRent(s, h, "get_apartment_rent",
		"Apartment (아파트) lease records with deposit summary statistics for a region and month.",
		func(ctx context.Context, region, ym string, rows int) (*molit.RentResult, error) {
			return h.molit.AptRents(ctx, region, ym, rows)
		})
	registerMolitTrade(s, h, "get_officetel_trades",
		"Officetel (오피스텔) sale records with price summary statistics.",
		func(ctx context.Context, region, ym string, rows int) (*molit.TradeResult, error) {
			return h.molit.OfficetelTrades(ctx, region, ym, rows)
		})
	registerMolitRent(s, h, "get_officetel_rent",
		"Officetel (오피스텔) lease records with deposit summary statistics.",
		func(ctx context.Context, region, ym string, rows int) (*molit.RentResult, error) {
			return h.molit.OfficetelRents(ctx, region, ym, rows)
		})
	registerMolitTrade(s, h, "get_villa_trades",
		"Row-house and multi-family (빌라, 연립, 다세대) sale records with price summary statistics.",
		func(ctx context.Context, region, ym string, rows int) (*molit.TradeResult, error) {
			return h.molit.VillaTrades(ctx, region, ym, rows)
		})
	registerMolitRent(s, h, "get_villa_rent",
		"Row-house and multi-family (빌라, 연립, 다세대) lease records with deposit summary statistics.",
		func(ctx context.Context, region, ym string, rows int) (*molit.RentResult, error) {
			return h.molit.VillaRents(ctx, region, ym, rows)
		})
	registerMolitTrade(s, h, "get_single_house_trades",
		"Detached and multi-unit house (단독, 다가구) sale records with price summary statistics.",
		func(ctx context.Context, region, ym string, rows int) (*molit.TradeResult, error) {
			return h.molit.SingleHouseTrades(ctx, region, ym, rows)
		})
	registerMolitRent(s, h, "get_single_house_rent",
		"Detached and multi-unit house (단독, 다가구) lease records with deposit summary statistics.",
		func(ctx context.Context, region, ym string, rows int) (*molit.RentResult, error) {
			return h.molit.SingleHouseRents(ctx, region, ym, rows)
		})

	s.AddTool(mcp.NewTool("get_commercial_trade",
		mcp.WithDescription("Commercial building (상업업무용) sale records with price summary statistics."),
		mcp.WithString("region_code", mcp.Required(), mcp.Description("5-digit legal district code, e.g. 11440")),
		mcp.WithString("year_month", mcp.Required(), mcp.Description("Deal year-month in YYYYMM format, e.g. 202503")),
		mcp.WithNumber("num_of_rows", mcp.Description("Maximum records to fetch, default 100")),
	), h.commercialTrade)

	s.AddTool(mcp.NewTool("get_apt_subscription_info",
		mcp.WithDescription("Applyhome (청약홈) APT subscription notice metadata: notice numbers, house names, locations and schedule dates."),
		mcp.WithNumber("page", mcp.Description("Page number, 1-based")),
		mcp.WithNumber("per_page", mcp.Description("Items per page, default 100")),
	), h.subscriptionInfo)

	s.AddTool(mcp.NewTool("get_apt_subscription_results",
		mcp.WithDescription("Applyhome (청약홈) subscription statistics: applicants, winners, competition rates and score-based winners."),
		mcp.WithString("stat_kind", mcp.Required(),
			mcp.Description("One of reqst_area, reqst_age, przwner_area, przwner_age, cmpetrt_area, aps_przwner")),
		mcp.WithString("stat_year_month", mcp.Description("Statistics year-month in YYYYMM")),
		mcp.WithString("area_code", mcp.Description("Subscription area code")),
		mcp.WithString("reside_secd", mcp.Description("Residence section code")),
		mcp.WithNumber("page", mcp.Description("Page number, 1-based")),
		mcp.WithNumber("per_page", mcp.Description("Items per page, default 100")),
	), h.subscriptionResults)

	s.AddTool(mcp.NewTool("get_public_auction_items",
		mcp.WithDescription("Onbid public auction bid result list with won/lost outcomes, filterable by type, location, date and price ranges."),
		mcp.WithNumber("page_no", mcp.Description("Page number, 1-based")),
		mcp.WithNumber("num_of_rows", mcp.Description("Items per page, default 20")),
		mcp.WithString("cltr_type_cd", mcp.Description("Item type code, e.g. 0001 for real estate")),
		mcp.WithString("prpt_div_cd", mcp.Description("Property division code")),
		mcp.WithString("dsps_mthod_cd", mcp.Description("Disposal method code: 0001 sale, 0002 lease")),
		mcp.WithString("bid_div_cd", mcp.Description("Bid division code")),
		mcp.WithString("lctn_sdnm", mcp.Description("Province or metropolitan city name")),
		mcp.WithString("lctn_sggnm", mcp.Description("City or district name")),
		mcp.WithString("lctn_emd_nm", mcp.Description("Town name")),
		mcp.WithString("opbd_dt_start", mcp.Description("Opening date range start, yyyyMMdd")),
		mcp.WithString("opbd_dt_end", mcp.Description("Opening date range end, yyyyMMdd")),
		mcp.WithNumber("apsl_evl_amt_start", mcp.Description("Appraisal amount range start in won")),
		mcp.WithNumber("apsl_evl_amt_end", mcp.Description("Appraisal amount range end in won")),
		mcp.WithNumber("lowst_bid_prc_start", mcp.Description("Lowest bid price range start in won")),
		mcp.WithNumber("lowst_bid_prc_end", mcp.Description("Lowest bid price range end in won")),
		mcp.WithString("pbct_stat_cd", mcp.Description("Bid result status code")),
		mcp.WithString("onbid_cltr_nm", mcp.Description("Item name keyword")),
	), h.auctionItems)

	s.AddTool(mcp.NewTool("get_public_auction_item_detail",
		mcp.WithDescription("Onbid bid result detail for a single public auction item."),
		mcp.WithString("cltr_mng_no", mcp.Required(), mcp.Description("Item management number")),
		mcp.WithString("pbct_cdtn_no", mcp.Required(), mcp.Description("Auction condition number")),
		mcp.WithNumber("page_no", mcp.Description("Page number, 1-based")),
		mcp.WithNumber("num_of_rows", mcp.Description("Items per page, default 20")),
	), h.auctionItemDetail)

	s.AddTool(mcp.NewTool("get_onbid_thing_info_list",
		mcp.WithDescription("Onbid unified usage auction item list, filterable by category, location and price ranges. Resolve categories and addresses with the code lookup tools first."),
		mcp.WithNumber("page_no", mcp.Description("Page number, 1-based")),
		mcp.WithNumber("num_of_rows", mcp.Description("Items per page, default 20")),
		mcp.WithString("dpsl_mtd_cd", mcp.Description("Disposal method code: 0001 sale, 0002 lease")),
		mcp.WithString("ctgr_hirk_id", mcp.Description("Category ID from the bottom code lookup")),
		mcp.WithString("ctgr_hirk_id_mid", mcp.Description("Category ID from the middle code lookup")),
		mcp.WithString("sido", mcp.Description("Province or metropolitan city name")),
		mcp.WithString("sgk", mcp.Description("City or district name")),
		mcp.WithString("emd", mcp.Description("Town name")),
		mcp.WithNumber("goods_price_from", mcp.Description("Appraisal amount range start in won")),
		mcp.WithNumber("goods_price_to", mcp.Description("Appraisal amount range end in won")),
		mcp.WithNumber("open_price_from", mcp.Description("Lowest bid price range start in won")),
		mcp.WithNumber("open_price_to", mcp.Description("Lowest bid price range end in won")),
		mcp.WithString("pbct_begn_dtm", mcp.Description("Bid date range start, YYYYMMDD")),
		mcp.WithString("pbct_cls_dtm", mcp.Description("Bid date range end, YYYYMMDD")),
		mcp.WithString("cltr_nm", mcp.Description("Item name keyword")),
	), h.thingInfoList)

	s.AddTool(mcp.NewTool("get_onbid_top_code_info",
		mcp.WithDescription("Onbid top-level usage category codes. Drill down with the middle and bottom code tools."),
		mcp.WithNumber("page_no", mcp.Description("Page number, 1-based")),
		mcp.WithNumber("num_of_rows", mcp.Description("Items per page, default 100")),
	), h.topCodes)

	s.AddTool(mcp.NewTool("get_onbid_middle_code_info",
		mcp.WithDescription("Onbid middle-level usage category codes under a parent category."),
		mcp.WithString("ctgr_id", mcp.Required(), mcp.Description("Parent category ID, e.g. 10000")),
		mcp.WithNumber("page_no", mcp.Description("Page number, 1-based")),
		mcp.WithNumber("num_of_rows", mcp.Description("Items per page, default 100")),
	), h.middleCodes)

	s.AddTool(mcp.NewTool("get_onbid_bottom_code_info",
		mcp.WithDescription("Onbid bottom-level usage category codes under a parent category."),
		mcp.WithString("ctgr_id", mcp.Required(), mcp.Description("Parent category ID, e.g. 10100")),
		mcp.WithNumber("page_no", mcp.Description("Page number, 1-based")),
		mcp.WithNumber("num_of_rows", mcp.Description("Items per page, default 100")),
	), h.bottomCodes)

	s.AddTool(mcp.NewTool("get_onbid_addr1_info",
		mcp.WithDescription("Onbid address list, depth 1: provinces and metropolitan cities."),
		mcp.WithNumber("page_no", mcp.Description("Page number, 1-based")),
		mcp.WithNumber("num_of_rows", mcp.Description("Items per page, default 100")),
	), h.addr1)

	s.AddTool(mcp.NewTool("get_onbid_addr2_info",
		mcp.WithDescription("Onbid address list, depth 2: cities and districts under a province."),
		mcp.WithString("addr1", mcp.Required(), mcp.Description("Province name from the depth-1 lookup")),
		mcp.WithNumber("page_no", mcp.Description("Page number, 1-based")),
		mcp.WithNumber("num_of_rows", mcp.Description("Items per page, default 100")),
	), h.addr2)

	s.AddTool(mcp.NewTool("get_onbid_addr3_info",
		mcp.WithDescription("Onbid address list, depth 3: towns under a district."),
		mcp.WithString("addr2", mcp.Required(), mcp.Description("District name from the depth-2 lookup")),
		mcp.WithNumber("page_no", mcp.Description("Page number, 1-based")),
		mcp.WithNumber("num_of_rows", mcp.Description("Items per page, default 100")),
	), h.addr3)

	s.AddTool(mcp.NewTool("get_onbid_dtl_addr_info",
		mcp.WithDescription("Onbid detailed addresses under a town."),
		mcp.WithString("addr3", mcp.Required(), mcp.Description("Town name from the depth-3 lookup")),
		mcp.WithNumber("page_no", mcp.Description("Page number, 1-based")),
		mcp.WithNumber("num_of_rows", mcp.Description("Items per page, default 100")),
	), h.detailAddrs)

	s.AddTool(mcp.NewTool("calculate_loan_payment",
		mcp.WithDescription("Equal principal and interest monthly loan payment in 10,000 KRW units."),
		mcp.WithNumber("principal_10k", mcp.Required(), mcp.Description("Loan principal in 10,000 KRW")),
		mcp.WithNumber("annual_rate_pct", mcp.Required(), mcp.Description("Annual interest rate in percent")),
		mcp.WithNumber("years", mcp.Required(), mcp.Description("Loan term in years")),
	), h.loanPayment)

	s.AddTool(mcp.NewTool("calculate_compound_growth",
		mcp.WithDescription("Compounded asset growth with initial capital and monthly contributions, in 10,000 KRW units."),
		mcp.WithNumber("initial_10k", mcp.Required(), mcp.Description("Initial capital in 10,000 KRW")),
		mcp.WithNumber("monthly_contribution_10k", mcp.Required(), mcp.Description("Monthly contribution in 10,000 KRW")),
		mcp.WithNumber("annual_rate_pct", mcp.Required(), mcp.Description("Annual return rate in percent")),
		mcp.WithNumber("years", mcp.Required(), mcp.Description("Projection horizon in years")),
	), h.compoundGrowth)

	s.AddTool(mcp.NewTool("calculate_monthly_cashflow",
		mcp.WithDescription("Monthly free cashflow after debt service and living costs. A zero living cost estimates it at 40% of income."),
		mcp.WithNumber("monthly_income_10k", mcp.Required(), mcp.Description("Monthly income in 10,000 KRW")),
		mcp.WithNumber("monthly_loan_payment_10k", mcp.Required(), mcp.Description("Monthly loan payment in 10,000 KRW")),
		mcp.WithNumber("monthly_living_cost_10k", mcp.Required(), mcp.Description("Monthly living cost in 10,000 KRW, 0 to estimate")),
		mcp.WithNumber("other_monthly_costs_10k", mcp.Description("Other fixed monthly costs in 10,000 KRW")),
	), h.monthlyCashflow)
}

func registerMolitTrade(s *server.MCPServer, h *Handler, name, description string, fetch molitTradeFunc) {
	s.AddTool(mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("region_code", mcp.Required(), mcp.Description("5-digit legal district code, e.g. 11440")),
		mcp.WithString("year_month", mcp.Required(), mcp.Description("Deal year-month in YYYYMM format, e.g. 202503")),
		mcp.WithNumber("num_of_rows", mcp.Description("Maximum records to fetch, default 100")),
	), h.molitTrade(fetch))
}

func registerMolitRent(s *server.MCPServer, h *Handler, name, description string, fetch molitRentFunc) {
	s.AddTool(mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("region_code", mcp.Required(), mcp.Description("5-digit legal district code, e.g. 11440")),
		mcp.WithString("year_month", mcp.Required(), mcp.Description("Deal year-month in YYYYMM format, e.g. 202503")),
		mcp.WithNumber("num_of_rows", mcp.Description("Maximum records to fetch, default 100")),
	), h.molitRent(fetch))
}

// molitArgs is the shared argument shape of the MOLIT tools
type molitArgs struct {
	RegionCode string `json:"region_code"`
	YearMonth  string `json:"year_month"`
	NumOfRows  int    `json:"num_of_rows,omitempty"`
}

func (a *molitArgs) validate() error {
	if a.RegionCode == "" {
		return fmt.Errorf("region_code is required")
	}
	if a.YearMonth == "" {
		return fmt.Errorf("year_month is required")
	}
	return nil
}

func (h *Handler) molitTrade(fetch molitTradeFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if h.molit == nil {
			return mcp.NewToolResultError("DATA_GO_KR_API_KEY is not configured"), nil
		}
		var args molitArgs
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to parse arguments: %v", err)), nil
		}
		if err := args.validate(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, err := fetch(ctx, args.RegionCode, args.YearMonth, args.NumOfRows)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultStructuredOnly(result), nil
	}
}

func (h *Handler) molitRent(fetch molitRentFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if h.molit == nil {
			return mcp.NewToolResultError("DATA_GO_KR_API_KEY is not configured"), nil
		}
		var args molitArgs
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to parse arguments: %v", err)), nil
		}
		if err := args.validate(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, err := fetch(ctx, args.RegionCode, args.YearMonth, args.NumOfRows)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultStructuredOnly(result), nil
	}
}

func (h *Handler) currentYearMonth(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultStructuredOnly(map[string]string{
		"year_month": h.now().UTC().Format("200601"),
	}), nil
}

func (h *Handler) commercialTrade(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.molit == nil {
		return mcp.NewToolResultError("DATA_GO_KR_API_KEY is not configured"), nil
	}
	var args molitArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse arguments: %v", err)), nil
	}
	if err := args.validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := h.molit.CommercialTrades(ctx, args.RegionCode, args.YearMonth, args.NumOfRows)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultStructuredOnly(result), nil
}

func (h *Handler) subscriptionInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.odcloud == nil {
		return mcp.NewToolResultError("ODCLOUD_API_KEY or ODCLOUD_SERVICE_KEY is not configured"), nil
	}
	args := struct {
		Page    int `json:"page,omitempty"`
		PerPage int `json:"per_page,omitempty"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse arguments: %v", err)), nil
	}

	page, err := h.odcloud.SubscriptionNotices(ctx, args.Page, args.PerPage)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultStructuredOnly(page), nil
}

func (h *Handler) subscriptionResults(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.odcloud == nil {
		return mcp.NewToolResultError("ODCLOUD_API_KEY or ODCLOUD_SERVICE_KEY is not configured"), nil
	}
	args := struct {
		StatKind      string `json:"stat_kind"`
		StatYearMonth string `json:"stat_year_month,omitempty"`
		AreaCode      string `json:"area_code,omitempty"`
		ResideSecd    string `json:"reside_secd,omitempty"`
		Page          int    `json:"page,omitempty"`
		PerPage       int    `json:"per_page,omitempty"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse arguments: %v", err)), nil
	}

	page, err := h.odcloud.SubscriptionStats(ctx, odcloud.StatKind(args.StatKind), odcloud.StatFilters{
		StatYearMonth: args.StatYearMonth,
		AreaCode:      args.AreaCode,
		ResideCode:    args.ResideSecd,
	}, args.Page, args.PerPage)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultStructuredOnly(page), nil
}

func (h *Handler) auctionItems(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.onbid == nil {
		return mcp.NewToolResultError("ONBID_API_KEY (or DATA_GO_KR_API_KEY) is not configured"), nil
	}
	args := struct {
		PageNo              int    `json:"page_no,omitempty"`
		NumOfRows           int    `json:"num_of_rows,omitempty"`
		ItemTypeCode        string `json:"cltr_type_cd,omitempty"`
		PropertyDivCode     string `json:"prpt_div_cd,omitempty"`
		DisposalMethodCode  string `json:"dsps_mthod_cd,omitempty"`
		BidDivCode          string `json:"bid_div_cd,omitempty"`
		Sido                string `json:"lctn_sdnm,omitempty"`
		Sigungu             string `json:"lctn_sggnm,omitempty"`
		Emd                 string `json:"lctn_emd_nm,omitempty"`
		OpenDateStart       string `json:"opbd_dt_start,omitempty"`
		OpenDateEnd         string `json:"opbd_dt_end,omitempty"`
		AppraisalAmtStart   int64  `json:"apsl_evl_amt_start,omitempty"`
		AppraisalAmtEnd     int64  `json:"apsl_evl_amt_end,omitempty"`
		LowestBidPriceStart int64  `json:"lowst_bid_prc_start,omitempty"`
		LowestBidPriceEnd   int64  `json:"lowst_bid_prc_end,omitempty"`
		BidStatusCode       string `json:"pbct_stat_cd,omitempty"`
		ItemName            string `json:"onbid_cltr_nm,omitempty"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse arguments: %v", err)), nil
	}

	page, err := h.onbid.BidResults(ctx, onbid.BidResultQuery{
		ItemTypeCode:        args.ItemTypeCode,
		PropertyDivCode:     args.PropertyDivCode,
		DisposalMethodCode:  args.DisposalMethodCode,
		BidDivCode:          args.BidDivCode,
		Sido:                args.Sido,
		Sigungu:             args.Sigungu,
		Emd:                 args.Emd,
		OpenDateStart:       args.OpenDateStart,
		OpenDateEnd:         args.OpenDateEnd,
		AppraisalAmtStart:   args.AppraisalAmtStart,
		AppraisalAmtEnd:     args.AppraisalAmtEnd,
		LowestBidPriceStart: args.LowestBidPriceStart,
		LowestBidPriceEnd:   args.LowestBidPriceEnd,
		BidStatusCode:       args.BidStatusCode,
		ItemName:            args.ItemName,
	}, args.PageNo, args.NumOfRows)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultStructuredOnly(page), nil
}

func (h *Handler) auctionItemDetail(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.onbid == nil {
		return mcp.NewToolResultError("ONBID_API_KEY (or DATA_GO_KR_API_KEY) is not configured"), nil
	}
	args := struct {
		ItemMgmtNo    string `json:"cltr_mng_no"`
		AuctionCondNo string `json:"pbct_cdtn_no"`
		PageNo        int    `json:"page_no,omitempty"`
		NumOfRows     int    `json:"num_of_rows,omitempty"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse arguments: %v", err)), nil
	}

	page, err := h.onbid.BidResultDetail(ctx, args.ItemMgmtNo, args.AuctionCondNo, args.PageNo, args.NumOfRows)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultStructuredOnly(page), nil
}

func (h *Handler) thingInfoList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.onbid == nil {
		return mcp.NewToolResultError("ONBID_API_KEY (or DATA_GO_KR_API_KEY) is not configured"), nil
	}
	args := struct {
		PageNo             int    `json:"page_no,omitempty"`
		NumOfRows          int    `json:"num_of_rows,omitempty"`
		DisposalMethodCode string `json:"dpsl_mtd_cd,omitempty"`
		CategoryID         string `json:"ctgr_hirk_id,omitempty"`
		CategoryMidID      string `json:"ctgr_hirk_id_mid,omitempty"`
		Sido               string `json:"sido,omitempty"`
		Sigungu            string `json:"sgk,omitempty"`
		Emd                string `json:"emd,omitempty"`
		AppraisalFrom      int64  `json:"goods_price_from,omitempty"`
		AppraisalTo        int64  `json:"goods_price_to,omitempty"`
		LowestBidFrom      int64  `json:"open_price_from,omitempty"`
		LowestBidTo        int64  `json:"open_price_to,omitempty"`
		BidBeginDate       string `json:"pbct_begn_dtm,omitempty"`
		BidCloseDate       string `json:"pbct_cls_dtm,omitempty"`
		ItemName           string `json:"cltr_nm,omitempty"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse arguments: %v", err)), nil
	}

	page, err := h.onbid.ThingInfoList(ctx, onbid.ThingInfoQuery{
		DisposalMethodCode: args.DisposalMethodCode,
		CategoryID:         args.CategoryID,
		CategoryMidID:      args.CategoryMidID,
		Sido:               args.Sido,
		Sigungu:            args.Sigungu,
		Emd:                args.Emd,
		AppraisalFrom:      args.AppraisalFrom,
		AppraisalTo:        args.AppraisalTo,
		LowestBidFrom:      args.LowestBidFrom,
		LowestBidTo:        args.LowestBidTo,
		BidBeginDate:       args.BidBeginDate,
		BidCloseDate:       args.BidCloseDate,
		ItemName:           args.ItemName,
	}, args.PageNo, args.NumOfRows)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultStructuredOnly(page), nil
}

// codeLookupArgs is the shared paging shape of the Onbid lookup tools
type codeLookupArgs struct {
	CtgrID    string `json:"ctgr_id,omitempty"`
	Addr1     string `json:"addr1,omitempty"`
	Addr2     string `json:"addr2,omitempty"`
	Addr3     string `json:"addr3,omitempty"`
	PageNo    int    `json:"page_no,omitempty"`
	NumOfRows int    `json:"num_of_rows,omitempty"`
}

func (h *Handler) codeLookup(request mcp.CallToolRequest, fetch func(args codeLookupArgs) (*onbid.RecordPage, error)) (*mcp.CallToolResult, error) {
	if h.onbid == nil {
		return mcp.NewToolResultError("ONBID_API_KEY (or DATA_GO_KR_API_KEY) is not configured"), nil
	}
	var args codeLookupArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse arguments: %v", err)), nil
	}
	if args.NumOfRows == 0 {
		args.NumOfRows = 100
	}

	page, err := fetch(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultStructuredOnly(page), nil
}

func (h *Handler) topCodes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.codeLookup(request, func(args codeLookupArgs) (*onbid.RecordPage, error) {
		return h.onbid.TopCodes(ctx, args.PageNo, args.NumOfRows)
	})
}

func (h *Handler) middleCodes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.codeLookup(request, func(args codeLookupArgs) (*onbid.RecordPage, error) {
		return h.onbid.MiddleCodes(ctx, args.CtgrID, args.PageNo, args.NumOfRows)
	})
}

func (h *Handler) bottomCodes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.codeLookup(request, func(args codeLookupArgs) (*onbid.RecordPage, error) {
		return h.onbid.BottomCodes(ctx, args.CtgrID, args.PageNo, args.NumOfRows)
	})
}

func (h *Handler) addr1(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.codeLookup(request, func(args codeLookupArgs) (*onbid.RecordPage, error) {
		return h.onbid.Addr1(ctx, args.PageNo, args.NumOfRows)
	})
}

func (h *Handler) addr2(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.codeLookup(request, func(args codeLookupArgs) (*onbid.RecordPage, error) {
		return h.onbid.Addr2(ctx, args.Addr1, args.PageNo, args.NumOfRows)
	})
}

func (h *Handler) addr3(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.codeLookup(request, func(args codeLookupArgs) (*onbid.RecordPage, error) {
		return h.onbid.Addr3(ctx, args.Addr2, args.PageNo, args.NumOfRows)
	})
}

func (h *Handler) detailAddrs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.codeLookup(request, func(args codeLookupArgs) (*onbid.RecordPage, error) {
		return h.onbid.DetailAddrs(ctx, args.Addr3, args.PageNo, args.NumOfRows)
	})
}

func (h *Handler) loanPayment(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		Principal10k  int     `json:"principal_10k"`
		AnnualRatePct float64 `json:"annual_rate_pct"`
		Years         int     `json:"years"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse arguments: %v", err)), nil
	}

	result, err := CalculateLoanPayment(args.Principal10k, args.AnnualRatePct, args.Years)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultStructuredOnly(result), nil
}

func (h *Handler) compoundGrowth(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		Initial10k             int     `json:"initial_10k"`
		MonthlyContribution10k float64 `json:"monthly_contribution_10k"`
		AnnualRatePct          float64 `json:"annual_rate_pct"`
		Years                  int     `json:"years"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse arguments: %v", err)), nil
	}

	result, err := CalculateCompoundGrowth(args.Initial10k, args.MonthlyContribution10k, args.AnnualRatePct, args.Years)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultStructuredOnly(result), nil
}

func (h *Handler) monthlyCashflow(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		MonthlyIncome10k      float64 `json:"monthly_income_10k"`
		MonthlyLoanPayment10k float64 `json:"monthly_loan_payment_10k"`
		MonthlyLivingCost10k  float64 `json:"monthly_living_cost_10k"`
		OtherMonthlyCosts10k  float64 `json:"other_monthly_costs_10k,omitempty"`
	}{}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse arguments: %v", err)), nil
	}

	result, err := CalculateMonthlyCashflow(args.MonthlyIncome10k, args.MonthlyLoanPayment10k,
		args.MonthlyLivingCost10k, args.OtherMonthlyCosts10k)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultStructuredOnly(result), nil
}
