// Package utils holds tolerant decoding helpers for hand-written or pasted
// input documents.
package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// ErrEmptyDocument is returned for blank input.
var ErrEmptyDocument = errors.New("empty document")

// RepairJSON attempts to fix common JSON errors in hand-edited documents.
// Supported repairs:
// - Missing quotes around keys
// - Single quotes instead of double quotes
// - Unclosed arrays/objects
// - Trailing commas
// - Comments in JSON
func RepairJSON(malformedJSON string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformedJSON)
	if err != nil {
		return "", fmt.Errorf("JSON_REPAIR_FAILED: %v", err)
	}
	return repaired, nil
}

// ParseHJSON parses Human-friendly JSON (Hjson) and returns standard JSON.
// Hjson supports comments, unquoted keys and strings, and optional commas.
func ParseHJSON(hjsonData string) (string, error) {
	var result any
	if err := hjson.Unmarshal([]byte(hjsonData), &result); err != nil {
		return "", fmt.Errorf("HJSON_PARSE_ERROR: %v", err)
	}

	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("JSON_MARSHAL_ERROR: %v", err)
	}
	return string(jsonBytes), nil
}

// SmartParse tries multiple parsing strategies and decodes into v.
// Order of attempts:
// 1. Standard JSON parse
// 2. JSON repair
// 3. Hjson parse (most lenient)
// Numbers are kept as json.Number so amounts keep their exact text.
func SmartParse(input string, v any) (string, error) {
	// Try 1: Standard JSON
	if err := decodeJSON(input, v); err == nil {
		return input, nil
	}

	// Try 2: JSON Repair
	if repaired, err := RepairJSON(input); err == nil {
		if err := decodeJSON(repaired, v); err == nil {
			return repaired, nil
		}
	}

	// Try 3: Hjson
	if converted, err := ParseHJSON(input); err == nil {
		if err := decodeJSON(converted, v); err == nil {
			return converted, nil
		}
	}

	return "", fmt.Errorf("SMART_PARSE_FAILED: all parsing strategies failed for input")
}

func decodeJSON(input string, v any) error {
	dec := json.NewDecoder(strings.NewReader(input))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after document")
	}
	return nil
}

// DecodeDocument decodes a flat input document into the key/value mapping
// consumed by the pipeline. A Markdown document is first reduced to its
// first fenced code block.
func DecodeDocument(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDocument
	}

	input := string(data)
	if block, ok := ExtractCodeBlock(data); ok {
		input = block
	}

	var doc map[string]any
	if _, err := SmartParse(input, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("document is not an object")
	}
	return doc, nil
}
