package onbid

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bidResultJSON = `{
  "response": {
    "header": {"resultCode": "00", "resultMsg": "NORMAL SERVICE"},
    "body": {
      "totalCount": 2,
      "pageNo": 1,
      "numOfRows": 20,
      "items": {
        "item": [
          {"cltrMngNo": "2024-01234-001", "cltrNm": "서울 마포구 토지", "pbctStatCd": "낙찰", "opbdDt": "20250310"},
          {"cltrMngNo": "2024-01234-002", "cltrNm": "서울 마포구 건물", "pbctStatCd": "유찰", "opbdDt": "20250310"}
        ]
      }
    }
  }
}`

const bidResultFlatJSON = `{
  "header": {"resultCode": "00"},
  "body": {
    "totalCount": 1,
    "items": {"item": {"cltrMngNo": "2024-09999-001", "cltrNm": "단일 물건"}}
  }
}`

const bidResultErrorJSON = `{
  "result": {"resultCode": "22", "resultMsg": "LIMITED NUMBER OF SERVICE REQUESTS EXCEEDS ERROR"}
}`

const thingInfoXML = `<?xml version="1.0" encoding="UTF-8"?>
<response>
  <header>
    <resultCode>00</resultCode>
    <resultMsg>NORMAL SERVICE.</resultMsg>
  </header>
  <body>
    <items>
      <item>
        <CLTR_NM>서울 마포구 성산동 토지</CLTR_NM>
        <CTGR_FULL_NM>부동산 / 토지 / 대지</CTGR_FULL_NM>
        <MIN_BID_PRC>350000000</MIN_BID_PRC>
        <APSL_ASES_AVG_AMT>500000000</APSL_ASES_AVG_AMT>
      </item>
      <item>
        <CLTR_NM>서울 마포구 합정동 건물</CLTR_NM>
        <MIN_BID_PRC>800000000</MIN_BID_PRC>
      </item>
    </items>
    <TotalCount>2</TotalCount>
  </body>
</response>`

const codeInfoXML = `<?xml version="1.0" encoding="UTF-8"?>
<response>
  <header>
    <resultCode>00</resultCode>
  </header>
  <body>
    <items>
      <item>
        <CTGR_ID>10000</CTGR_ID>
        <CTGR_NM>부동산</CTGR_NM>
        <CTGR_HIRK_ID>0</CTGR_HIRK_ID>
      </item>
      <item>
        <CTGR_ID>20000</CTGR_ID>
        <CTGR_NM>동산</CTGR_NM>
        <CTGR_HIRK_ID>0</CTGR_HIRK_ID>
      </item>
    </items>
    <totalCount>2</totalCount>
  </body>
</response>`

const onbidErrorXML = `<?xml version="1.0" encoding="UTF-8"?>
<response>
  <header>
    <resultCode>30</resultCode>
    <resultMsg>SERVICE KEY IS NOT REGISTERED ERROR.</resultMsg>
  </header>
</response>`

type capture struct {
	path  string
	query string
}

func newTestClient(t *testing.T, payload string, contentType string, got *capture) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			got.path = r.URL.Path
			got.query = r.URL.RawQuery
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return NewClient("onbid-key",
		WithBidResultBaseURL(srv.URL),
		WithOnbidBaseURL(srv.URL))
}

func TestBidResults(t *testing.T) {
	var got capture
	client := newTestClient(t, bidResultJSON, "application/json", &got)

	page, err := client.BidResults(context.Background(), BidResultQuery{
		ItemTypeCode:        "0001",
		Sido:                "서울특별시",
		Sigungu:             "마포구",
		LowestBidPriceStart: 100000000,
	}, 1, 20)
	require.NoError(t, err)

	assert.Contains(t, got.path, "getCltrBidRsltList")
	assert.Contains(t, got.query, "serviceKey=onbid-key")
	assert.Contains(t, got.query, "resultType=json")
	assert.Contains(t, got.query, "cltrTypeCd=0001")
	assert.Contains(t, got.query, "lowstBidPrcStart=100000000")
	assert.NotContains(t, got.query, "opbdDtStart")

	assert.Equal(t, 2, page.TotalCount)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "낙찰", page.Items[0]["pbctStatCd"])
}

func TestBidResultsFlatEnvelope(t *testing.T) {
	client := newTestClient(t, bidResultFlatJSON, "application/json", nil)

	page, err := client.BidResults(context.Background(), BidResultQuery{}, 1, 20)
	require.NoError(t, err)

	// single item objects are normalized to a one-element list
	require.Len(t, page.Items, 1)
	assert.Equal(t, "2024-09999-001", page.Items[0]["cltrMngNo"])
	assert.Equal(t, 1, page.PageNo)
	assert.Equal(t, 20, page.NumOfRows)
}

func TestBidResultsAPIError(t *testing.T) {
	client := newTestClient(t, bidResultErrorJSON, "application/json", nil)

	_, err := client.BidResults(context.Background(), BidResultQuery{}, 1, 20)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "22", apiErr.Code)
	assert.Contains(t, apiErr.Message, "EXCEEDS")
}

func TestBidResultDetail(t *testing.T) {
	var got capture
	client := newTestClient(t, bidResultFlatJSON, "application/json", &got)

	_, err := client.BidResultDetail(context.Background(), "2024-09999-001", "001", 1, 20)
	require.NoError(t, err)

	assert.Contains(t, got.path, "getCltrBidRsltDtl")
	assert.Contains(t, got.query, "cltrMngNo=2024-09999-001")
	assert.Contains(t, got.query, "pbctCdtnNo=001")
}

func TestBidResultDetailValidation(t *testing.T) {
	client := NewClient("onbid-key")

	_, err := client.BidResultDetail(context.Background(), "", "001", 1, 20)
	require.Error(t, err)

	_, err = client.BidResultDetail(context.Background(), "2024-1", "", 1, 20)
	require.Error(t, err)
}

func TestThingInfoList(t *testing.T) {
	var got capture
	client := newTestClient(t, thingInfoXML, "application/xml", &got)

	page, err := client.ThingInfoList(context.Background(), ThingInfoQuery{
		DisposalMethodCode: "0001",
		CategoryMidID:      "10100",
		Sido:               "서울특별시",
		Sigungu:            "마포구",
		AppraisalTo:        500000000,
	}, 1, 20)
	require.NoError(t, err)

	assert.Contains(t, got.path, "getUnifyUsageCltr")
	assert.Contains(t, got.query, "DPSL_MTD_CD=0001")
	assert.Contains(t, got.query, "CTGR_HIRK_ID_MID=10100")
	assert.Contains(t, got.query, "GOODS_PRICE_TO=500000000")

	assert.Equal(t, 2, page.TotalCount)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "서울 마포구 성산동 토지", page.Items[0]["CLTR_NM"])
	assert.Equal(t, "350000000", page.Items[0]["MIN_BID_PRC"])
	// items carry only the tags each record actually has
	_, hasAppraisal := page.Items[1]["APSL_ASES_AVG_AMT"]
	assert.False(t, hasAppraisal)
}

func TestCodeLookups(t *testing.T) {
	var got capture
	client := newTestClient(t, codeInfoXML, "application/xml", &got)
	ctx := context.Background()

	page, err := client.TopCodes(ctx, 1, 100)
	require.NoError(t, err)
	assert.Contains(t, got.path, "getOnbidTopCodeInfo")
	require.Len(t, page.Items, 2)
	assert.Equal(t, "10000", page.Items[0]["CTGR_ID"])
	assert.Equal(t, "부동산", page.Items[0]["CTGR_NM"])

	_, err = client.MiddleCodes(ctx, "10000", 1, 100)
	require.NoError(t, err)
	assert.Contains(t, got.path, "getOnbidMiddleCodeInfo")
	assert.Contains(t, got.query, "CTGR_ID=10000")

	_, err = client.BottomCodes(ctx, "10100", 1, 100)
	require.NoError(t, err)
	assert.Contains(t, got.path, "getOnbidBottomCodeInfo")

	_, err = client.Addr1(ctx, 1, 100)
	require.NoError(t, err)
	assert.Contains(t, got.path, "getOnbidAddr1Info")

	_, err = client.Addr2(ctx, "서울특별시", 1, 100)
	require.NoError(t, err)
	assert.Contains(t, got.path, "getOnbidAddr2Info")

	_, err = client.Addr3(ctx, "마포구", 1, 100)
	require.NoError(t, err)
	assert.Contains(t, got.path, "getOnbidAddr3Info")
	assert.Contains(t, got.query, "ADDR2=")

	_, err = client.DetailAddrs(ctx, "성산동", 1, 100)
	require.NoError(t, err)
	assert.Contains(t, got.path, "getOnbidDtlAddrInfo")
}

func TestCodeLookupValidation(t *testing.T) {
	client := NewClient("onbid-key")
	ctx := context.Background()

	_, err := client.MiddleCodes(ctx, "", 1, 100)
	require.Error(t, err)
	_, err = client.Addr2(ctx, "", 1, 100)
	require.Error(t, err)
	_, err = client.Addr3(ctx, "", 1, 100)
	require.Error(t, err)
	_, err = client.DetailAddrs(ctx, "", 1, 100)
	require.Error(t, err)
}

func TestXMLAPIError(t *testing.T) {
	client := newTestClient(t, onbidErrorXML, "application/xml", nil)

	_, err := client.TopCodes(context.Background(), 1, 100)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "30", apiErr.Code)
	assert.Contains(t, apiErr.Message, "NOT REGISTERED")
}

func TestMissingServiceKey(t *testing.T) {
	client := NewClient("")
	_, err := client.BidResults(context.Background(), BidResultQuery{}, 1, 20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ONBID_API_KEY")
}

func TestPagingDefaults(t *testing.T) {
	var got capture
	client := newTestClient(t, bidResultJSON, "application/json", &got)

	_, err := client.BidResults(context.Background(), BidResultQuery{}, 0, 0)
	require.NoError(t, err)
	assert.Contains(t, got.query, "pageNo=1")
	assert.Contains(t, got.query, "numOfRows=20")
}
