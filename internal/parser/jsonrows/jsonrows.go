// Package jsonrows converts JSON documents into Tables so JSON uploads can
// flow through the same transformations as delimited text.
//
// Accepted shapes:
//
//   - a top-level array of objects
//   - an object with exactly one key holding an array (the wrapper is
//     peeled off)
//   - a bare object (treated as a one-element array)
//
// Cell conversion flattens nested arrays into ", "-joined strings; objects
// inside arrays and nested objects are re-marshalled as JSON text. Column
// order follows first appearance of each key in document order.
package jsonrows

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"csvtoolkit/pkg/apperrors"
	"csvtoolkit/pkg/table"
)

// Parse decodes a JSON document from r into a Table named name. Unparsable
// JSON or a document with no convertible objects fails with a parse error.
func Parse(r io.Reader, name string) (*table.Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, apperrors.Wrap(apperrors.KindParse, err, name+": invalid JSON")
	}

	items := primaryArray(doc)
	if len(items) == 0 {
		return nil, apperrors.Parsef("%s: JSON document contains no data", name)
	}

	headers, err := headerOrder(raw, doc)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindParse, err, name+": scan keys")
	}

	t := table.New(name, headers)
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, apperrors.Parsef("%s: item %d is not a JSON object", name, i)
		}
		row := make(table.Row, len(headers))
		for _, h := range headers {
			if v, ok := obj[h]; ok {
				row[h] = cellString(v)
			} else {
				row[h] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// primaryArray unwraps the document into the array of row candidates.
func primaryArray(doc any) []any {
	switch v := doc.(type) {
	case []any:
		return v
	case map[string]any:
		if len(v) == 1 {
			for _, inner := range v {
				if arr, ok := inner.([]any); ok {
					return arr
				}
			}
		}
		return []any{v}
	default:
		return nil
	}
}

// cellString flattens a decoded JSON value to its cell representation.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			if _, ok := item.(map[string]any); ok {
				b, _ := json.Marshal(item)
				parts[i] = string(b)
			} else {
				parts[i] = cellString(item)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		b, _ := json.Marshal(t)
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

// headerOrder walks the document's tokens and records row-object keys in
// first-seen order. encoding/json's map decoding loses key order, so column
// order has to be recovered from the token stream. doc (the already-decoded
// document) settles which unwrapping path primaryArray took.
func headerOrder(raw []byte, doc any) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	switch v := doc.(type) {
	case []any:
		if _, err := dec.Token(); err != nil { // opening '['
			return nil, err
		}
		return scanRowKeys(dec)
	case map[string]any:
		if len(v) == 1 {
			for _, inner := range v {
				if _, ok := inner.([]any); ok {
					// Wrapper object: skip '{', the key, and the array's '['.
					for i := 0; i < 3; i++ {
						if _, err := dec.Token(); err != nil {
							return nil, err
						}
					}
					return scanRowKeys(dec)
				}
			}
		}
		return scanObjectKeys(raw)
	default:
		return nil, nil
	}
}

// scanRowKeys consumes row objects from an opened array, collecting keys in
// first-seen order until the array closes.
func scanRowKeys(dec *json.Decoder) ([]string, error) {
	var headers []string
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			// Non-object array member; Parse will report it.
			if err := skipValueAfter(dec, tok); err != nil {
				return nil, err
			}
			continue
		}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := keyTok.(string)
			if !seen[key] {
				seen[key] = true
				headers = append(headers, key)
			}
			var discard json.RawMessage
			if err := dec.Decode(&discard); err != nil {
				return nil, err
			}
		}
		if _, err := dec.Token(); err != nil { // closing '}'
			return nil, err
		}
	}
	return headers, nil
}

// scanObjectKeys re-scans raw as a single bare object, returning its keys in
// order.
func scanObjectKeys(raw []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if _, err := dec.Token(); err != nil { // opening '{'
		return nil, err
	}
	headers := []string{}
	seen := map[string]bool{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		if !seen[key] {
			seen[key] = true
			headers = append(headers, key)
		}
		var discard json.RawMessage
		if err := dec.Decode(&discard); err != nil {
			return nil, err
		}
	}
	return headers, nil
}

// skipValueAfter discards the value whose first token was already read.
// Delims open a nested structure that must be consumed to its close.
func skipValueAfter(dec *json.Decoder, tok json.Token) error {
	d, ok := tok.(json.Delim)
	if !ok || (d != '{' && d != '[') {
		return nil
	}
	depth := 1
	for depth > 0 {
		t, err := dec.Token()
		if err != nil {
			return err
		}
		if dd, ok := t.(json.Delim); ok {
			switch dd {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}
