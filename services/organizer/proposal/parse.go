// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package proposal defines the hierarchy proposal contract and the trust
// boundary that turns raw backend output into a set of edits safe to apply.
//
// Backend output is untrusted external data. Parsing is defensive and never
// fatal: text that yields no usable proposal becomes an empty proposal, and
// validation drops bad entries one at a time rather than rejecting the whole
// response.
package proposal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AleutianAI/SceneOrganizer/services/organizer/scene"
)

// Entry is one proposed parent assignment. A nil Parent proposes moving the
// object to the scene root.
type Entry struct {
	Object scene.ObjectID
	Parent *scene.ObjectID
}

// Proposal is the ordered set of parent edits decoded from backend output.
// It may be partial (objects omitted keep their current parent) and may
// reference ids the snapshot does not know; validation handles both.
type Proposal struct {
	Entries []Entry

	// Malformed is true when the raw text contained no decodable proposal.
	// The entries are then empty and the run degrades to zero changes.
	Malformed bool
}

// wireProposal is the JSON schema requested from the backend: a flat map of
// object id to parent id, with "" or null meaning the scene root.
type wireProposal struct {
	Hierarchy map[string]*string `json:"hierarchy"`
}

// Parse decodes raw backend text into a Proposal. The text may wrap the JSON
// in markdown fences or prose; Parse scans for the outermost object, repairs
// common model mistakes (single quotes, unbalanced braces), and gives up by
// returning an empty malformed proposal rather than an error.
//
// Entry order follows the key order of the decoded JSON object, which is the
// order the model emitted.
func Parse(raw string) Proposal {
	jsonText, ok := extractJSON(raw)
	if !ok {
		slog.Warn("backend response contained no JSON object", "bytes", len(raw))
		return Proposal{Malformed: true}
	}

	entries, err := decodeEntries(jsonText)
	if err != nil {
		// Second chance: repair and retry, the way the original response
		// cleanup did.
		repaired := balanceBraces(normalizeQuotes(jsonText))
		entries, err = decodeEntries(repaired)
		if err != nil {
			slog.Warn("backend response JSON undecodable", "error", err)
			return Proposal{Malformed: true}
		}
	}
	return Proposal{Entries: entries}
}

// decodeEntries decodes the wire schema while preserving key order.
func decodeEntries(jsonText string) ([]Entry, error) {
	var wire wireProposal
	if err := json.Unmarshal([]byte(jsonText), &wire); err != nil {
		return nil, err
	}
	hierarchy := wire.Hierarchy
	nested := hierarchy != nil
	if !nested {
		// Accept the bare map shape too: {"child": "parent", ...}.
		var bare map[string]*string
		if err := json.Unmarshal([]byte(jsonText), &bare); err != nil {
			return nil, err
		}
		hierarchy = bare
	}

	keys, err := keyOrder(jsonText, nested)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(hierarchy))
	seen := make(map[string]bool, len(hierarchy))
	for _, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true
		parent, ok := hierarchy[key]
		if !ok {
			continue
		}
		entry := Entry{Object: scene.ObjectID(key)}
		if parent != nil && *parent != "" {
			pid := scene.ObjectID(*parent)
			entry.Parent = &pid
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// keyOrder re-reads the proposal object's keys with a token walk.
// encoding/json maps lose ordering, and validation drops cycle offenders in
// proposal order, so order matters here. A substring scan is not enough: in a
// hierarchy map most keys also appear earlier as parent values. nested selects
// the object under the "hierarchy" key rather than the top level.
func keyOrder(jsonText string, nested bool) ([]string, error) {
	dec := json.NewDecoder(strings.NewReader(jsonText))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	if nested {
		found := false
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := tok.(string)
			if !ok {
				return nil, fmt.Errorf("proposal: unexpected token %v", tok)
			}
			if key == "hierarchy" {
				if err := expectDelim(dec, '{'); err != nil {
					return nil, err
				}
				found = true
				break
			}
			if err := skipValue(dec); err != nil {
				return nil, err
			}
		}
		if !found {
			return nil, fmt.Errorf("proposal: no hierarchy object")
		}
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("proposal: unexpected token %v", tok)
		}
		keys = append(keys, key)
		if err := skipValue(dec); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("proposal: expected %v, got %v", want, tok)
	}
	return nil
}

// skipValue consumes one complete JSON value, nested or scalar.
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	d, ok := tok.(json.Delim)
	if !ok || (d != '{' && d != '[') {
		return nil
	}
	depth := 1
	for depth > 0 {
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}

// extractJSON locates the outermost JSON object in free text, tolerating
// markdown code fences around it.
func extractJSON(raw string) (string, bool) {
	text := raw
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			text = rest[:end]
		} else {
			text = rest
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// normalizeQuotes rewrites single-quoted JSON into double quotes. Quotes
// inside already double-quoted strings are left alone.
func normalizeQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inDouble := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			if i == 0 || s[i-1] != '\\' {
				inDouble = !inDouble
			}
			b.WriteByte(c)
		case '\'':
			if inDouble {
				b.WriteByte(c)
			} else {
				b.WriteByte('"')
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// balanceBraces appends closing braces/brackets for any left unclosed, a
// common truncation failure in model output.
func balanceBraces(s string) string {
	var stack []byte
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' && (i == 0 || s[i-1] != '\\') {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '{', '[':
			stack = append(stack, c)
		case '}':
			if len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
		case ']':
			if len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
		}
	}
	var b strings.Builder
	b.WriteString(s)
	if inString {
		b.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String()
}
