package main

import (
	"context"
	"strings"
)

const (
	defaultSummarySample = 100
	defaultChatContext   = 50
)

const noTopicsSentinel = "no topics"

const emptySummaryMessage = "No feedback provided to generate a summary."

// Analyzer builds prompts for the analysis operations and parses the
// responses. All calls go through the resilient executor, so none of these
// methods can fail: degraded output carries the executor's sentinel text.
type Analyzer struct {
	caller        *Caller
	summarySample int
	chatContext   int
}

func NewAnalyzer(caller *Caller, summarySample, chatContext int) *Analyzer {
	if summarySample < 1 {
		summarySample = defaultSummarySample
	}
	if chatContext < 1 {
		chatContext = defaultChatContext
	}
	return &Analyzer{caller: caller, summarySample: summarySample, chatContext: chatContext}
}

// Sentiment asks for exactly one word among Positive, Negative, Neutral. The
// returned label is trusted verbatim; out-of-vocabulary responses pass
// through and downstream aggregation buckets them separately.
func (a *Analyzer) Sentiment(ctx context.Context, feedback string) string {
	prompt := "Analyze the sentiment of the following customer feedback: '" + feedback +
		"'. Respond with only one word: Positive, Negative, or Neutral."
	return a.caller.Call(ctx, prompt)
}

// Topics asks for 2-5 comma-separated topics for one feedback item.
func (a *Analyzer) Topics(ctx context.Context, feedback string) []string {
	prompt := "Extract 2 to 5 main topics or keywords from the following customer feedback: '" + feedback +
		"'. Respond as a comma-separated list. Example: 'delivery, speed, tracking, app issues'. " +
		"If no topics are found, respond with 'no topics'."
	return ParseTopics(a.caller.Call(ctx, prompt))
}

// ParseTopics splits a raw comma-separated response into trimmed,
// record-unique topics. The "no topics" sentinel and the executor's failure
// sentinels yield nil.
func ParseTopics(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, noTopicsSentinel) || IsCallFailure(raw) {
		return nil
	}

	var topics []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		t := strings.TrimSpace(part)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		topics = append(topics, t)
	}
	return topics
}

const summaryPromptTemplate = `You are an AI assistant specialized in analyzing customer feedback.
Generate a comprehensive summary of the following customer feedback entries.
Provide the summary in the following structured Markdown format:

## Overall Feedback Summary

### 1. General Sentiment Distribution
- Briefly describe the overall sentiment (e.g., predominantly positive, mixed, largely negative).

### 2. Key Positive Themes and Highlights
- Identify and summarize recurring positive aspects.
- Provide 1-2 example quotes or themes if possible.

### 3. Key Negative Issues and Areas for Improvement
- Identify and summarize recurring negative issues or complaints.
- Provide 1-2 example quotes or themes if possible.

### 4. Actionable Suggestions and Recommendations
- Based on the feedback, provide 2-3 concrete, actionable suggestions for the business to improve.

### Customer Feedback Entries:
`

// Summarize embeds a bounded prefix of the corpus and requests a four-section
// markdown report. The response is returned unmodified.
func (a *Analyzer) Summarize(ctx context.Context, feedback []string) string {
	sample := feedback
	if len(sample) > a.summarySample {
		sample = sample[:a.summarySample]
	}
	if len(sample) == 0 {
		return emptySummaryMessage
	}
	return a.caller.Call(ctx, summaryPromptTemplate+strings.Join(sample, "\n"))
}

// Chat answers a question over a bounded prefix of the corpus plus the most
// recent summary. The response is returned unmodified.
func (a *Analyzer) Chat(ctx context.Context, feedback []string, summary, question string) string {
	snippets := feedback
	if len(snippets) > a.chatContext {
		snippets = snippets[:a.chatContext]
	}
	prompt := "You are an AI assistant analyzing customer feedback. " +
		"Based on the following feedback snippets and the overall AI summary:\n\n" +
		"Feedback Snippets:\n" + strings.Join(snippets, "\n") + "\n\n" +
		"Overall AI Summary:\n" + summary + "\n\n" +
		"User's Question: " + question + "\n\n" +
		"Please provide a concise and helpful answer."
	return a.caller.Call(ctx, prompt)
}

// AnalyzeAll runs sentiment and topic extraction for every record in order,
// two independent calls per record, invoking progress after each item. The
// returned slices are index-aligned with feedback.
func (a *Analyzer) AnalyzeAll(ctx context.Context, feedback []string, progress func(done, total int)) ([]string, [][]string) {
	total := len(feedback)
	sentiments := make([]string, 0, total)
	topics := make([][]string, 0, total)
	for i, item := range feedback {
		sentiments = append(sentiments, a.Sentiment(ctx, item))
		topics = append(topics, a.Topics(ctx, item))
		if progress != nil {
			progress(i+1, total)
		}
	}
	return sentiments, topics
}

// SentimentDistribution buckets labels for the chart collaborator. Anything
// outside the closed vocabulary, including executor sentinels, counts as
// "Error".
func SentimentDistribution(sentiments []string) map[string]int {
	counts := make(map[string]int)
	for _, s := range sentiments {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "positive":
			counts["Positive"]++
		case "negative":
			counts["Negative"]++
		case "neutral":
			counts["Neutral"]++
		default:
			counts["Error"]++
		}
	}
	return counts
}
