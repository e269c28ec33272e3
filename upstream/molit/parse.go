package molit

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const resultCodeOK = "000"

// rawResponse mirrors the RTMS XML envelope. All item fields across the
// nine endpoints are collected in rawItem; each mapper picks the ones its
// property type carries.
type rawResponse struct {
	Header struct {
		ResultCode string `xml:"resultCode"`
		ResultMsg  string `xml:"resultMsg"`
	} `xml:"header"`
	Body struct {
		TotalCount int `xml:"totalCount"`
		Items      struct {
			Items []rawItem `xml:"item"`
		} `xml:"items"`
	} `xml:"body"`
}

type rawItem struct {
	AptNm        string `xml:"aptNm"`
	OffiNm       string `xml:"offiNm"`
	MhouseNm     string `xml:"mhouseNm"`
	UmdNm        string `xml:"umdNm"`
	HouseType    string `xml:"houseType"`
	ExcluUseAr   string `xml:"excluUseAr"`
	TotalFloorAr string `xml:"totalFloorAr"`
	Floor        string `xml:"floor"`
	DealAmount   string `xml:"dealAmount"`
	Deposit      string `xml:"deposit"`
	MonthlyRent  string `xml:"monthlyRent"`
	ContractType string `xml:"contractType"`
	DealYear     string `xml:"dealYear"`
	DealMonth    string `xml:"dealMonth"`
	DealDay      string `xml:"dealDay"`
	BuildYear    string `xml:"buildYear"`
	DealingGbn   string `xml:"dealingGbn"`
	// The cancellation marker tag is camel-cased on residential endpoints
	// and lower-cased on the commercial endpoint.
	CdealType      string `xml:"cdealType"`
	CdealTypeLower string `xml:"cdealtype"`
	BuildingType   string `xml:"buildingType"`
	BuildingUse    string `xml:"buildingUse"`
	LandUse        string `xml:"landUse"`
	BuildingAr     string `xml:"buildingAr"`
	ShareDealing   string `xml:"shareDealingType"`
}

// cancelled reports whether the deal was cancelled after registration.
// Cancelled deals are excluded from results and statistics.
func (it *rawItem) cancelled() bool {
	return it.CdealType == "O" || it.CdealTypeLower == "O"
}

func (it *rawItem) tradeDate() string {
	year := strings.TrimSpace(it.DealYear)
	if year == "" {
		return ""
	}
	return fmt.Sprintf("%s-%s-%s",
		year, zeroPad2(it.DealMonth), zeroPad2(it.DealDay))
}

// zeroPad2 left-pads a day or month component to two digits
func zeroPad2(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func decodeResponse(data []byte) (*rawResponse, error) {
	var resp rawResponse
	if err := xml.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("XML parse failed: %w", err)
	}
	if resp.Header.ResultCode != resultCodeOK {
		return nil, newAPIError(resp.Header.ResultCode)
	}
	return &resp, nil
}

// parseAmount parses a comma-formatted amount like "120,000". ok is false
// for empty or malformed values; such records are skipped entirely.
func parseAmount(raw string) (int, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return 0, false
	}
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseMonthlyRent treats an absent or malformed monthlyRent as 0 (jeonse)
func parseMonthlyRent(raw string) int {
	n, ok := parseAmount(raw)
	if !ok {
		return 0
	}
	return n
}

func parseFloat(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

// unitNameField selects where the unit name lives for a property type
type unitNameField int

const (
	unitNameApt unitNameField = iota
	unitNameOffi
	unitNameMhouse
	unitNameNone
)

func (it *rawItem) unitName(field unitNameField) string {
	switch field {
	case unitNameApt:
		return strings.TrimSpace(it.AptNm)
	case unitNameOffi:
		return strings.TrimSpace(it.OffiNm)
	case unitNameMhouse:
		return strings.TrimSpace(it.MhouseNm)
	default:
		return ""
	}
}

// tradeOptions control per-property-type mapping quirks
type tradeOptions struct {
	unitName     unitNameField
	includeHouse bool // carry the houseType subtype
	grossArea    bool // detached houses report totalFloorAr, not excluUseAr
	noFloor      bool // floor is not applicable
}

func mapTradeItems(raw []rawItem, opts tradeOptions) []TradeItem {
	items := make([]TradeItem, 0, len(raw))
	for i := range raw {
		it := &raw[i]
		if it.cancelled() {
			continue
		}
		price, ok := parseAmount(it.DealAmount)
		if !ok {
			continue
		}

		area := it.ExcluUseAr
		if opts.grossArea {
			area = it.TotalFloorAr
		}
		floor := parseInt(it.Floor)
		if opts.noFloor {
			floor = 0
		}
		houseType := ""
		if opts.includeHouse {
			houseType = strings.TrimSpace(it.HouseType)
		}

		items = append(items, TradeItem{
			UnitName:  it.unitName(opts.unitName),
			Dong:      strings.TrimSpace(it.UmdNm),
			HouseType: houseType,
			AreaSqm:   parseFloat(area),
			Floor:     floor,
			Price10k:  price,
			TradeDate: it.tradeDate(),
			BuildYear: parseInt(it.BuildYear),
			DealType:  strings.TrimSpace(it.DealingGbn),
		})
	}
	return items
}

func mapRentItems(raw []rawItem, opts tradeOptions) []RentItem {
	items := make([]RentItem, 0, len(raw))
	for i := range raw {
		it := &raw[i]
		if it.cancelled() {
			continue
		}
		deposit, ok := parseAmount(it.Deposit)
		if !ok {
			continue
		}

		area := it.ExcluUseAr
		if opts.grossArea {
			area = it.TotalFloorAr
		}
		floor := parseInt(it.Floor)
		if opts.noFloor {
			floor = 0
		}
		houseType := ""
		if opts.includeHouse {
			houseType = strings.TrimSpace(it.HouseType)
		}

		items = append(items, RentItem{
			UnitName:       it.unitName(opts.unitName),
			Dong:           strings.TrimSpace(it.UmdNm),
			HouseType:      houseType,
			AreaSqm:        parseFloat(area),
			Floor:          floor,
			Deposit10k:     deposit,
			MonthlyRent10k: parseMonthlyRent(it.MonthlyRent),
			ContractType:   strings.TrimSpace(it.ContractType),
			TradeDate:      it.tradeDate(),
			BuildYear:      parseInt(it.BuildYear),
		})
	}
	return items
}

func mapCommercialItems(raw []rawItem) []CommercialItem {
	items := make([]CommercialItem, 0, len(raw))
	for i := range raw {
		it := &raw[i]
		if it.cancelled() {
			continue
		}
		price, ok := parseAmount(it.DealAmount)
		if !ok {
			continue
		}

		items = append(items, CommercialItem{
			BuildingType: strings.TrimSpace(it.BuildingType),
			BuildingUse:  strings.TrimSpace(it.BuildingUse),
			LandUse:      strings.TrimSpace(it.LandUse),
			Dong:         strings.TrimSpace(it.UmdNm),
			BuildingAr:   parseFloat(it.BuildingAr),
			Floor:        parseInt(it.Floor),
			Price10k:     price,
			TradeDate:    it.tradeDate(),
			BuildYear:    parseInt(it.BuildYear),
			DealType:     strings.TrimSpace(it.DealingGbn),
			ShareDealing: strings.TrimSpace(it.ShareDealing),
		})
	}
	return items
}

func buildTradeSummary(prices []int) TradeSummary {
	if len(prices) == 0 {
		return TradeSummary{}
	}
	return TradeSummary{
		MedianPrice10k: medianInt(prices),
		MinPrice10k:    minInt(prices),
		MaxPrice10k:    maxInt(prices),
		SampleCount:    len(prices),
	}
}

func buildRentSummary(items []RentItem) RentSummary {
	if len(items) == 0 {
		return RentSummary{}
	}

	deposits := make([]int, len(items))
	rentTotal := 0
	for i, it := range items {
		deposits[i] = it.Deposit10k
		rentTotal += it.MonthlyRent10k
	}

	return RentSummary{
		MedianDeposit10k:  medianInt(deposits),
		MinDeposit10k:     minInt(deposits),
		MaxDeposit10k:     maxInt(deposits),
		MonthlyRentAvg10k: rentTotal / len(items),
		SampleCount:       len(items),
	}
}

func medianInt(values []int) int {
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func minInt(values []int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxInt(values []int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
