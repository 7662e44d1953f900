package main

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

const (
	exportArchiveName = "ai_feedback_report.zip"
	exportSummaryName = "ai_summary.md"
	exportDataName    = "analyzed_feedback_data.csv"
)

// BuildExportArchive bundles the summary report and the per-record analysis
// table into a ZIP, one CSV row per cleaned record in original order.
func BuildExportArchive(feedback, sentiments []string, topics [][]string, summary string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	sw, err := zw.Create(exportSummaryName)
	if err != nil {
		return nil, err
	}
	if _, err := sw.Write([]byte(BuildSummaryReport(len(feedback), summary))); err != nil {
		return nil, err
	}

	cw, err := zw.Create(exportDataName)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(cw)
	if err := w.Write([]string{"Feedback_Text_Cleaned", "Sentiment", "Topics"}); err != nil {
		return nil, err
	}
	for i, text := range feedback {
		sentiment := ""
		if i < len(sentiments) {
			sentiment = sentiments[i]
		}
		topicList := ""
		if i < len(topics) {
			topicList = strings.Join(topics[i], ", ")
		}
		if err := w.Write([]string{text, sentiment, topicList}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildSummaryReport renders the text report included in the export bundle.
func BuildSummaryReport(recordCount int, summary string) string {
	return fmt.Sprintf(
		"AI Customer Feedback Analysis Report Summary\n"+
			"---------------------------------------------\n\n"+
			"Total Feedbacks Analyzed: %d\n\n"+
			"%s\n\n"+
			"---------------------------------------------\n"+
			"Generated by AI Customer Feedback Analyzer\n",
		recordCount, summary)
}
