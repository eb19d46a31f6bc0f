package wirelinetest

import (
	"encoding/json"
	"testing"

	"github.com/wireline-rpc/wireline/jsonrpc"
)

// AssertResult asserts that the response succeeded and its result equals
// the JSON rendering of want.
func AssertResult(t testing.TB, resp *jsonrpc.Response, want interface{}) {
	t.Helper()
	if resp == nil {
		t.Fatal("response is nil")
	}
	if resp.Error != nil {
		t.Fatalf("response is an error: %d %s", resp.Error.Code, resp.Error.Message)
	}
	wantData, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshaling want: %v", err)
	}
	if string(resp.Result) != string(wantData) {
		t.Errorf("result = %s, want %s", resp.Result, wantData)
	}
}

// AssertErrorCode asserts that the response carries an error with the
// given code.
func AssertErrorCode(t testing.TB, resp *jsonrpc.Response, code int) {
	t.Helper()
	if resp == nil {
		t.Fatal("response is nil")
	}
	if resp.Error == nil {
		t.Fatalf("expected error response, got result %s", resp.Result)
	}
	if resp.Error.Code != code {
		t.Errorf("error code = %d, want %d", resp.Error.Code, code)
	}
}

// AssertNotified asserts that the peer received a notification with the
// given method.
func AssertNotified(t testing.TB, p *Peer, method string) {
	t.Helper()
	for _, n := range p.Notifications() {
		if n.Method == method {
			return
		}
	}
	t.Errorf("no notification with method %q received", method)
}
