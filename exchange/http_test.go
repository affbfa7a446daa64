package exchange

import (
	"testing"

	common "github.com/evdnx/goxchange/exchange/common"
)

func TestCheckEmbeddedError(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"clean object", `{"ask":"1.0"}`, false},
		{"empty error array", `{"error":[],"result":{"XXBTZUSD":{}}}`, false},
		{"non-empty error array", `{"error":["EAPI:Invalid key"]}`, true},
		{"error string", `{"error":"invalid symbol"}`, true},
		{"error code", `{"error_code":20001}`, true},
		{"result false", `{"result":false,"error_code":20015}`, true},
		{"result true", `{"result":true,"orders":[]}`, false},
		{"array payload", `[{"currency":"btc"}]`, false},
	}
	for _, tc := range cases {
		err := checkEmbeddedError("Test", []byte(tc.payload))
		if tc.wantErr && err == nil {
			t.Errorf("%s: expected error, got nil", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
		if tc.wantErr && !common.IsUpstreamError(err) {
			t.Errorf("%s: expected upstream error, got %v", tc.name, err)
		}
	}
}

func TestDecodeJSONPreservesNumbers(t *testing.T) {
	var raw struct {
		Price interface{} `json:"price"`
	}
	if err := decodeJSON([]byte(`{"price":4269.38000001}`), &raw); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	// numbers must stay json.Number to survive the decimal cast unrounded
	num, ok := raw.Price.(interface{ String() string })
	if !ok {
		t.Fatalf("expected json.Number, got %T", raw.Price)
	}
	if num.String() != "4269.38000001" {
		t.Errorf("expected 4269.38000001, got %s", num.String())
	}
}

func TestDecodeJSONParsingError(t *testing.T) {
	var v map[string]interface{}
	err := decodeJSON([]byte(`{not json`), &v)
	if !common.IsParsingError(err) {
		t.Fatalf("expected parsing error, got %v", err)
	}
}
