package typedstorage

import "encoding/json"

// Codec is an interface for encoding and decoding values to the text
// held by a store. Merging assumes the encoded form is a JSON object, so
// a non-JSON codec rules out [MergeItem].
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// Ensure JSONCodec implements Codec interface.
var _ Codec = JSONCodec{}

// JSONCodec is a codec for encoding and decoding values
// using standard Go JSON serialization.
type JSONCodec struct{}

// Encode encodes a value into a JSON byte slice.
func (JSONCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Decode decodes a JSON byte slice into v, which must be a pointer.
func (JSONCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
