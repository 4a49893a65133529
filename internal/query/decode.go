package query

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/odyssey-erp/console/internal/shared"
)

type envelope[T any] struct {
	Results []T  `json:"results"`
	Count   *int `json:"count"`
}

// DecodeList accepts either the {results, count} envelope or a bare array and
// always returns the envelope. A missing count defaults to len(results).
func DecodeList[T any](data []byte) (shared.Page[T], error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return shared.NewPage[T](nil, 0), nil
	}
	switch data[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return shared.Page[T]{}, fmt.Errorf("query: decode list: %w", err)
		}
		return shared.NewPage(items, len(items)), nil
	case '{':
		var env envelope[T]
		if err := json.Unmarshal(data, &env); err != nil {
			return shared.Page[T]{}, fmt.Errorf("query: decode envelope: %w", err)
		}
		count := len(env.Results)
		if env.Count != nil {
			count = *env.Count
		}
		return shared.NewPage(env.Results, count), nil
	default:
		return shared.Page[T]{}, fmt.Errorf("query: unexpected list payload starting with %q", data[0])
	}
}
