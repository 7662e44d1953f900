package main

import (
	"fmt"
	"log"

	"github.com/slack-go/slack"
)

// NotifyAnalysisComplete posts a short completion notice to the configured
// Slack channel. It is a no-op unless both token and channel are set, and it
// never fails the run it reports on.
func NotifyAnalysisComplete(cfg Config, run AnalysisRun) {
	if cfg.SlackBotToken == "" || cfg.SlackChannelID == "" {
		return
	}
	api := slack.New(cfg.SlackBotToken)
	msg := FormatAnalysisNotice(run)
	if _, _, err := api.PostMessage(cfg.SlackChannelID, slack.MsgOptionText(msg, false)); err != nil {
		log.Printf("slack notify error: %v", err)
	}
}

func FormatAnalysisNotice(run AnalysisRun) string {
	return fmt.Sprintf("Feedback analysis complete: %s (%d records, provider=%s model=%s)",
		run.SourceName, run.RecordCount, run.Provider, run.Model)
}
