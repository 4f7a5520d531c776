// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

var (
	// ErrNoMatch is returned when the query selects nothing
	ErrNoMatch = errors.New("query matched no value")

	// ErrAmbiguous is returned when the query selects more than one value
	ErrAmbiguous = errors.New("query matched more than one value")
)

// printer renders command results on the output stream
type printer struct {
	out   io.Writer
	query string
	raw   bool
}

// print writes doc, a JSON document, filtered by the query if one is set.
//
// Without a query the document is re-indented as is. With a query exactly one
// value must match; a string match is printed unquoted in raw mode.
func (p printer) print(doc []byte) error {
	if p.query == "" {
		var buf bytes.Buffer
		if err := json.Indent(&buf, doc, "", "  "); err != nil {
			return fmt.Errorf("format output: %w", err)
		}
		buf.WriteByte('\n')
		_, err := p.out.Write(buf.Bytes())
		return err
	}

	value, err := selectOne(doc, p.query)
	if err != nil {
		return err
	}

	if s, ok := value.(string); ok && p.raw {
		_, err := fmt.Fprintln(p.out, s)
		return err
	}

	enc := json.NewEncoder(p.out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

// selectOne evaluates a JSONPath query against doc and returns the single match
func selectOne(doc []byte, query string) (any, error) {
	expr, err := jp.ParseString(query)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", query, err)
	}
	data, err := oj.Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("parse output: %w", err)
	}

	matches := expr.Get(data)
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, query)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %s (%d matches)", ErrAmbiguous, query, len(matches))
	}
}

// marshal encodes a command result for print
func marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}
	return b, nil
}
