// Package json routes all JSON encoding through one jsoniter configuration.
package json

import (
	"io"

	jsoniter "github.com/json-iterator/go"
)

// Encoder represents an encoder for json.
type Encoder interface {
	Encode(v any) error
	SetIndent(prefix, indent string)
}

// Decoder represents a decoder for json.
type Decoder interface {
	Decode(v any) error
	DisallowUnknownFields()
}

var handler = jsoniter.ConfigCompatibleWithStandardLibrary

// Marshal converts v to bytes.
func Marshal(v any) ([]byte, error) {
	return handler.Marshal(v)
}

// MarshalIndent is Marshal with indentation.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return handler.MarshalIndent(v, prefix, indent)
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any) error {
	return handler.Unmarshal(data, v)
}

// NewEncoder creates an encoder writing to w.
func NewEncoder(w io.Writer) Encoder {
	return handler.NewEncoder(w)
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) Decoder {
	return handler.NewDecoder(r)
}
