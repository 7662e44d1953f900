package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Format tags the shape of an uploaded feedback file.
type Format string

const (
	FormatTabular    Format = "tabular"    // delimited rows with a header
	FormatStructured Format = "structured" // JSON array of objects
	FormatLine       Format = "line"       // one feedback per line
)

// FormatError reports an upload that violates the required structure. It
// aborts ingestion; nothing of the upload is retained.
type FormatError struct {
	msg string
}

func (e *FormatError) Error() string { return e.msg }

func formatErrorf(format string, args ...any) *FormatError {
	return &FormatError{msg: fmt.Sprintf(format, args...)}
}

// ErrEmptyResult means ingestion succeeded structurally but no usable text
// survived cleaning.
var ErrEmptyResult = errors.New("no valid feedback text found after cleaning")

const feedbackColumn = "feedback_text"
const feedbackField = "feedback"

// FormatForFilename maps an upload's extension to its declared format.
func FormatForFilename(name string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch ext {
	case "csv":
		return FormatTabular, nil
	case "json":
		return FormatStructured, nil
	case "txt":
		return FormatLine, nil
	}
	return "", formatErrorf("unsupported file type %q: please upload a CSV, JSON, or TXT file", ext)
}

// IngestAndClean extracts raw feedback strings from an uploaded blob and runs
// each through Normalize. Records that clean down to nothing are silently
// dropped; if nothing survives, ErrEmptyResult is returned.
func IngestAndClean(blob []byte, format Format, lemmatize bool) ([]string, error) {
	raw, err := extractRecords(blob, format)
	if err != nil {
		return nil, err
	}

	cleaned := make([]string, 0, len(raw))
	for _, text := range raw {
		c := Normalize(text, lemmatize)
		if c == "" {
			continue
		}
		cleaned = append(cleaned, c)
	}
	if len(cleaned) == 0 {
		return nil, ErrEmptyResult
	}
	return cleaned, nil
}

func extractRecords(blob []byte, format Format) ([]string, error) {
	switch format {
	case FormatTabular:
		return parseTabular(blob)
	case FormatStructured:
		return parseStructured(blob)
	case FormatLine:
		return parseLines(blob), nil
	}
	return nil, formatErrorf("unsupported format %q", format)
}

func parseTabular(blob []byte) ([]string, error) {
	r := csv.NewReader(bytes.NewReader(blob))
	r.FieldsPerRecord = -1

	headers, err := r.Read()
	if err != nil {
		return nil, formatErrorf("error reading CSV header: %v", err)
	}

	col := -1
	for i, h := range headers {
		name := strings.TrimSpace(h)
		if i == 0 {
			name = strings.TrimPrefix(name, "\uFEFF")
		}
		if name == feedbackColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, formatErrorf("CSV file must contain a %q column", feedbackColumn)
	}

	var out []string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, formatErrorf("error reading CSV row: %v", err)
		}
		if col < len(rec) {
			out = append(out, rec[col])
		} else {
			out = append(out, "")
		}
	}
	return out, nil
}

func parseStructured(blob []byte) ([]string, error) {
	var top any
	if err := json.Unmarshal(blob, &top); err != nil {
		return nil, formatErrorf("invalid JSON file format")
	}
	list, ok := top.([]any)
	if !ok {
		return nil, formatErrorf("JSON file must be a list of objects, each with a %q field", feedbackField)
	}

	var out []string
	for _, el := range list {
		obj, ok := el.(map[string]any)
		if !ok {
			// Non-object elements are skipped, not rejected.
			continue
		}
		text, _ := obj[feedbackField].(string)
		out = append(out, text)
	}
	return out, nil
}

func parseLines(blob []byte) []string {
	var out []string
	for _, line := range strings.Split(string(blob), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
