package molit

import "fmt"

// API error codes returned in the resultCode element. "000" is success.
var errorMessages = map[string]string{
	"03": "No trade records found for the specified region and period.",
	"10": "Invalid API request parameters.",
	"22": "Daily API request limit exceeded.",
	"30": "Unregistered API key.",
	"31": "API key has expired.",
}

// APIError is a non-success resultCode from the RTMS API
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("molit api error %s: %s", e.Code, e.Message)
}

func newAPIError(code string) *APIError {
	msg, ok := errorMessages[code]
	if !ok {
		msg = fmt.Sprintf("API error code: %s", code)
	}
	return &APIError{Code: code, Message: msg}
}

// TradeItem is one sale record. Amounts are in 10,000 KRW as published by
// the API. UnitName and HouseType are empty for property types that do not
// carry them.
type TradeItem struct {
	UnitName  string  `json:"unit_name"`
	Dong      string  `json:"dong"`
	HouseType string  `json:"house_type,omitempty"`
	AreaSqm   float64 `json:"area_sqm"`
	Floor     int     `json:"floor"`
	Price10k  int     `json:"price_10k"`
	TradeDate string  `json:"trade_date"`
	BuildYear int     `json:"build_year"`
	DealType  string  `json:"deal_type"`
}

// RentItem is one lease record. A MonthlyRent10k of 0 means jeonse
// (deposit-only lease).
type RentItem struct {
	UnitName       string  `json:"unit_name"`
	Dong           string  `json:"dong"`
	HouseType      string  `json:"house_type,omitempty"`
	AreaSqm        float64 `json:"area_sqm"`
	Floor          int     `json:"floor"`
	Deposit10k     int     `json:"deposit_10k"`
	MonthlyRent10k int     `json:"monthly_rent_10k"`
	ContractType   string  `json:"contract_type"`
	TradeDate      string  `json:"trade_date"`
	BuildYear      int     `json:"build_year"`
}

// CommercialItem is one commercial building sale record. Its shape differs
// from residential records: the building itself is described instead of a
// named unit.
type CommercialItem struct {
	BuildingType string  `json:"building_type"`
	BuildingUse  string  `json:"building_use"`
	LandUse      string  `json:"land_use"`
	Dong         string  `json:"dong"`
	BuildingAr   float64 `json:"building_ar"`
	Floor        int     `json:"floor"`
	Price10k     int     `json:"price_10k"`
	TradeDate    string  `json:"trade_date"`
	BuildYear    int     `json:"build_year"`
	DealType     string  `json:"deal_type"`
	ShareDealing string  `json:"share_dealing"`
}

// TradeSummary holds sale price statistics over the returned sample
type TradeSummary struct {
	MedianPrice10k int `json:"median_price_10k"`
	MinPrice10k    int `json:"min_price_10k"`
	MaxPrice10k    int `json:"max_price_10k"`
	SampleCount    int `json:"sample_count"`
}

// RentSummary holds deposit and rent statistics over the returned sample.
// JeonseRatioPct is reserved; computing it needs matching sale prices.
type RentSummary struct {
	MedianDeposit10k  int      `json:"median_deposit_10k"`
	MinDeposit10k     int      `json:"min_deposit_10k"`
	MaxDeposit10k     int      `json:"max_deposit_10k"`
	MonthlyRentAvg10k int      `json:"monthly_rent_avg_10k"`
	JeonseRatioPct    *float64 `json:"jeonse_ratio_pct"`
	SampleCount       int      `json:"sample_count"`
}

// TradeResult is the response for residential sale queries
type TradeResult struct {
	TotalCount int          `json:"total_count"`
	Items      []TradeItem  `json:"items"`
	Summary    TradeSummary `json:"summary"`
}

// RentResult is the response for lease queries
type RentResult struct {
	TotalCount int         `json:"total_count"`
	Items      []RentItem  `json:"items"`
	Summary    RentSummary `json:"summary"`
}

// CommercialResult is the response for commercial sale queries
type CommercialResult struct {
	TotalCount int              `json:"total_count"`
	Items      []CommercialItem `json:"items"`
	Summary    TradeSummary     `json:"summary"`
}
