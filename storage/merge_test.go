package storage_test

import (
	"testing"

	"github.com/picatz/typedstorage/storage"
	"github.com/shoenig/test/must"
)

func TestMergeJSON(t *testing.T) {
	cases := []struct {
		name  string
		base  string
		patch string
		want  string
	}{
		{
			name:  "empty base",
			base:  storage.EmptyObject,
			patch: `{"a":1}`,
			want:  `{"a":1}`,
		},
		{
			name:  "empty base re-encodes patch",
			base:  storage.EmptyObject,
			patch: `{"b":1, "a":{"d":2,"c":"<x>"}}`,
			want:  `{"a":{"c":"<x>","d":2},"b":1}`,
		},
		{
			name:  "nested objects merge",
			base:  `{"a":{"b":1,"c":2},"d":true}`,
			patch: `{"a":{"c":3,"e":4}}`,
			want:  `{"a":{"b":1,"c":3,"e":4},"d":true}`,
		},
		{
			name:  "arrays are replaced",
			base:  `{"tags":["a","b"]}`,
			patch: `{"tags":["c"]}`,
			want:  `{"tags":["c"]}`,
		},
		{
			name:  "null replaces",
			base:  `{"a":{"b":1}}`,
			patch: `{"a":null}`,
			want:  `{"a":null}`,
		},
		{
			name:  "zero values replace",
			base:  `{"n":5,"ok":true,"s":"x"}`,
			patch: `{"n":0,"ok":false,"s":""}`,
			want:  `{"n":0,"ok":false,"s":""}`,
		},
		{
			name:  "object replaces scalar",
			base:  `{"a":1}`,
			patch: `{"a":{"b":2}}`,
			want:  `{"a":{"b":2}}`,
		},
		{
			name:  "large numbers keep precision",
			base:  `{"id":9007199254740993}`,
			patch: `{"x":"<tag>"}`,
			want:  `{"id":9007199254740993,"x":"<tag>"}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := storage.MergeJSON(tc.base, tc.patch)
			must.NoError(t, err)
			must.Eq(t, tc.want, got)
		})
	}
}

func TestMergeJSON_errors(t *testing.T) {
	_, err := storage.MergeJSON(`[1]`, `{"a":1}`)
	must.ErrorIs(t, err, storage.ErrNotMergeable)

	_, err = storage.MergeJSON(`{}`, `"text"`)
	must.ErrorIs(t, err, storage.ErrNotMergeable)

	_, err = storage.MergeJSON(`{"a":`, `{}`)
	must.ErrorContains(t, err, "failed to decode merge base")

	_, err = storage.MergeJSON(`{}`, `{} {}`)
	must.ErrorContains(t, err, "failed to decode merge patch")
}
