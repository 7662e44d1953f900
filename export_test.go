package main

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"io"
	"reflect"
	"strings"
	"testing"
)

func TestBuildExportArchive(t *testing.T) {
	feedback := []string{"great product", "slow shipping"}
	sentiments := []string{"Positive", "Negative"}
	topics := [][]string{{"product", "quality"}, nil}

	blob, err := BuildExportArchive(feedback, sentiments, topics, "mostly positive")
	if err != nil {
		t.Fatalf("BuildExportArchive failed: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		t.Fatalf("reading archive failed: %v", err)
	}
	files := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("opening %s failed: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("reading %s failed: %v", f.Name, err)
		}
		files[f.Name] = string(data)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %v", files)
	}

	report, ok := files[exportSummaryName]
	if !ok {
		t.Fatalf("missing %s in archive", exportSummaryName)
	}
	if !strings.Contains(report, "Total Feedbacks Analyzed: 2") {
		t.Fatalf("report missing record count:\n%s", report)
	}
	if !strings.Contains(report, "mostly positive") {
		t.Fatalf("report missing summary:\n%s", report)
	}

	data, ok := files[exportDataName]
	if !ok {
		t.Fatalf("missing %s in archive", exportDataName)
	}
	rows, err := csv.NewReader(strings.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("parsing CSV failed: %v", err)
	}
	want := [][]string{
		{"Feedback_Text_Cleaned", "Sentiment", "Topics"},
		{"great product", "Positive", "product, quality"},
		{"slow shipping", "Negative", ""},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("CSV rows %v, want %v", rows, want)
	}
}

func TestBuildSummaryReportLayout(t *testing.T) {
	report := BuildSummaryReport(5, "the summary body")
	for _, want := range []string{
		"AI Customer Feedback Analysis Report Summary",
		"Total Feedbacks Analyzed: 5",
		"the summary body",
		"Generated by AI Customer Feedback Analyzer",
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}
}
