package jsonrpc

import "testing"

func TestDecodeMessageDiscrimination(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"request", `{"jsonrpc":"2.0","id":1,"method":"m"}`, "*jsonrpc.Request"},
		{"string id request", `{"jsonrpc":"2.0","id":"a","method":"m"}`, "*jsonrpc.Request"},
		{"notification", `{"jsonrpc":"2.0","method":"m"}`, "*jsonrpc.Notification"},
		{"null id notification", `{"jsonrpc":"2.0","id":null,"method":"m"}`, "*jsonrpc.Notification"},
		{"response", `{"jsonrpc":"2.0","id":1,"result":{}}`, "*jsonrpc.Response"},
		{"error response", `{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"x"}}`, "*jsonrpc.Response"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := DecodeMessage([]byte(tc.data))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			var got string
			switch msg.(type) {
			case *Request:
				got = "*jsonrpc.Request"
			case *Notification:
				got = "*jsonrpc.Notification"
			case *Response:
				got = "*jsonrpc.Response"
			}
			if got != tc.want {
				t.Errorf("decoded as %s, want %s", got, tc.want)
			}
		})
	}
}

func TestDecodeMessageParseError(t *testing.T) {
	_, err := DecodeMessage([]byte("not json"))
	rpcErr, ok := err.(*Error)
	if !ok || rpcErr.Code != CodeParseError {
		t.Errorf("error = %v, want parse error code %d", err, CodeParseError)
	}
}

func TestBoundedStrategy(t *testing.T) {
	s := BoundedStrategy{Limit: 4}
	if s.MaxInflight() != 4 {
		t.Errorf("MaxInflight = %d, want 4", s.MaxInflight())
	}
	if next := s.NextRequestID(7); next != 8 {
		t.Errorf("NextRequestID(7) = %d, want 8", next)
	}
}
