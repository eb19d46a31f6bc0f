package transport

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// Encoding is the text encoding shared by the reader and writer of a
// byte-stream channel. Both ends of a channel must agree on it out-of-band;
// it is not negotiated on the wire. Framing headers are always ASCII, only
// message bodies are transcoded.
type Encoding string

const (
	// UTF8 is the default channel encoding.
	UTF8 Encoding = "utf-8"
	// ASCII is accepted as an alias for the UTF-8 byte mapping; JSON
	// bodies restricted to ASCII are identical in both.
	ASCII   Encoding = "ascii"
	UTF16LE Encoding = "utf-16le"
	UTF16BE Encoding = "utf-16be"
)

// codec resolves the tag to an x/text encoding. UTF-8 and ASCII need no
// transcoding and return nil.
func (e Encoding) codec() (encoding.Encoding, error) {
	switch e {
	case "", UTF8, ASCII:
		return nil, nil
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", string(e))
	}
}

// Valid reports whether e names a supported encoding.
func (e Encoding) Valid() bool {
	_, err := e.codec()
	return err == nil
}

// encodeBody converts a UTF-8 JSON body to the channel encoding.
func (e Encoding) encodeBody(body []byte) ([]byte, error) {
	c, err := e.codec()
	if err != nil {
		return nil, err
	}
	if c == nil {
		return body, nil
	}
	return c.NewEncoder().Bytes(body)
}

// decodeBody converts a body in the channel encoding back to UTF-8.
func (e Encoding) decodeBody(body []byte) ([]byte, error) {
	c, err := e.codec()
	if err != nil {
		return nil, err
	}
	if c == nil {
		return body, nil
	}
	return c.NewDecoder().Bytes(body)
}
