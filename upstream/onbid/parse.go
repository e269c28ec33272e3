package onbid

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// APIError is a non-success resultCode from an Onbid service
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("onbid api error %s: %s", e.Code, e.Message)
}

func resultCodeOK(code string) bool {
	return code == "" || code == "00" || code == "000"
}

// jsonEnvelope carries the fields extracted from a bid result JSON response
type jsonEnvelope struct {
	resultCode string
	resultMsg  string
	totalCount int
	pageNo     int
	numOfRows  int
	items      []map[string]any
}

// decodeJSONResponse unwraps the B010003 JSON envelope. The service is
// inconsistent: success responses nest under "response" or arrive flat as
// {"header","body"}, and error responses use a {"result"} wrapper.
func decodeJSONResponse(data []byte) (*jsonEnvelope, error) {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("JSON parse failed: %w", err)
	}

	header := payload
	body := payload
	if response, ok := payload["response"].(map[string]any); ok {
		header = asMap(response["header"])
		body = asMap(response["body"])
	} else if h, b := asMap(payload["header"]), asMap(payload["body"]); len(h) > 0 && len(b) > 0 {
		header, body = h, b
	} else if result, ok := payload["result"].(map[string]any); ok {
		header, body = result, result
	}

	env := &jsonEnvelope{
		resultCode: asString(header["resultCode"]),
		resultMsg:  asString(firstNonNil(header["resultMsg"], payload["resultMsg"])),
		totalCount: asInt(body["totalCount"]),
		pageNo:     asInt(body["pageNo"]),
		numOfRows:  asInt(body["numOfRows"]),
		items:      extractItems(body),
	}

	if !resultCodeOK(env.resultCode) {
		msg := strings.TrimSpace(env.resultMsg)
		if msg == "" {
			msg = "Onbid API error"
		}
		return nil, &APIError{Code: env.resultCode, Message: msg}
	}
	return env, nil
}

// extractItems tolerates {"items":{"item":[...]}}, {"items":[...]}, a single
// item object and a bare "item" key.
func extractItems(body map[string]any) []map[string]any {
	raw := body["items"]
	if wrapped, ok := raw.(map[string]any); ok {
		raw = wrapped["item"]
	}
	if raw == nil {
		raw = body["item"]
	}

	switch v := raw.(type) {
	case map[string]any:
		return []map[string]any{v}
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, entry := range v {
			if m, ok := entry.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return []map[string]any{}
	}
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func firstNonNil(values ...any) any {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// xmlList is the parsed form of a ThingInfoInquireSvc or
// OnbidCodeInfoInquireSvc XML response
type xmlList struct {
	totalCount int
	items      []map[string]string
}

// decodeXMLResponse walks the document with a token decoder since item
// fields vary per service and the total count tag appears in three casings.
func decodeXMLResponse(data []byte) (*xmlList, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	out := &xmlList{items: []map[string]string{}}
	var resultCode, resultMsg string

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "resultCode":
			resultCode = decodeText(dec, &start)
		case "resultMsg":
			resultMsg = decodeText(dec, &start)
		case "TotalCount", "totalCount", "totalcount":
			if out.totalCount == 0 {
				out.totalCount, _ = strconv.Atoi(decodeText(dec, &start))
			}
		case "item":
			item, err := decodeItem(dec, &start)
			if err != nil {
				return nil, fmt.Errorf("XML parse failed: %w", err)
			}
			out.items = append(out.items, item)
		}
	}

	if !resultCodeOK(resultCode) {
		msg := strings.TrimSpace(resultMsg)
		if msg == "" {
			msg = "Onbid API error"
		}
		return nil, &APIError{Code: resultCode, Message: msg}
	}
	return out, nil
}

func decodeText(dec *xml.Decoder, start *xml.StartElement) string {
	var text string
	_ = dec.DecodeElement(&text, start)
	return strings.TrimSpace(text)
}

// decodeItem collects every child element of an <item> as tag -> text
func decodeItem(dec *xml.Decoder, start *xml.StartElement) (map[string]string, error) {
	var raw struct {
		Fields []struct {
			XMLName xml.Name
			Value   string `xml:",chardata"`
		} `xml:",any"`
	}
	if err := dec.DecodeElement(&raw, start); err != nil {
		return nil, err
	}

	item := make(map[string]string, len(raw.Fields))
	for _, f := range raw.Fields {
		item[f.XMLName.Local] = strings.TrimSpace(f.Value)
	}
	return item, nil
}
