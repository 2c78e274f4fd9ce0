package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotMergeable is returned when either side of a merge is not a JSON object.
var ErrNotMergeable = errors.New("storage: merge requires JSON objects")

// EmptyObject is the merge base for a key that has no value yet.
const EmptyObject = "{}"

// MergeJSON deep merges the JSON object patch into the JSON object base
// and returns the encoded result.
//
// Nested objects are merged key by key. Any other patch value, including
// arrays and null, replaces the value found in base. The result is always
// re-encoded, so object keys come back sorted even when base is empty.
func MergeJSON(base, patch string) (string, error) {
	dst, err := decodeObject(base)
	if err != nil {
		return "", fmt.Errorf("failed to decode merge base: %w", err)
	}

	src, err := decodeObject(patch)
	if err != nil {
		return "", fmt.Errorf("failed to decode merge patch: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(mergeObjects(dst, src)); err != nil {
		return "", fmt.Errorf("failed to encode merged value: %w", err)
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func decodeObject(text string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, ErrNotMergeable
	}
	return obj, nil
}

func mergeObjects(dst, src map[string]any) map[string]any {
	for key, value := range src {
		if srcObj, ok := value.(map[string]any); ok {
			if dstObj, ok := dst[key].(map[string]any); ok {
				dst[key] = mergeObjects(dstObj, srcObj)
				continue
			}
		}
		dst[key] = value
	}
	return dst
}
