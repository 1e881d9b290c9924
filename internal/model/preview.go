package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PreviewResult holds sampled rows. Columns lists the row keys in the order
// the server sent them, first-seen order across rows.
type PreviewResult struct {
	Columns []string
	Rows    []map[string]any
}

// Empty reports whether the preview has no rows.
func (p PreviewResult) Empty() bool {
	return len(p.Rows) == 0
}

// ParsePreview decodes the "data" member of a preview response. Numbers are
// kept as json.Number so wide integers survive unchanged.
func ParsePreview(raw json.RawMessage) (PreviewResult, error) {
	var result PreviewResult
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return result, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return result, fmt.Errorf("decoding preview rows: %w", err)
	}

	seen := make(map[string]bool)
	result.Rows = make([]map[string]any, 0, len(items))
	for i, item := range items {
		keys, err := objectKeys(item)
		if err != nil {
			return PreviewResult{}, fmt.Errorf("decoding preview row %d: %w", i, err)
		}
		for _, key := range keys {
			if !seen[key] {
				seen[key] = true
				result.Columns = append(result.Columns, key)
			}
		}

		dec := json.NewDecoder(bytes.NewReader(item))
		dec.UseNumber()
		row := make(map[string]any, len(keys))
		if err := dec.Decode(&row); err != nil {
			return PreviewResult{}, fmt.Errorf("decoding preview row %d: %w", i, err)
		}
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}

func objectKeys(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}
