package main

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

// stubProvider answers each prompt through a caller-supplied function and
// records every prompt it sees.
type stubProvider struct {
	mu      sync.Mutex
	prompts []string
	respond func(prompt string) (Generation, error)
}

func (p *stubProvider) Generate(_ context.Context, prompt string) (Generation, error) {
	p.mu.Lock()
	p.prompts = append(p.prompts, prompt)
	p.mu.Unlock()
	if p.respond == nil {
		return Generation{Text: "ok"}, nil
	}
	return p.respond(prompt)
}

func (p *stubProvider) Name() string  { return "stub" }
func (p *stubProvider) Model() string { return "stub-model" }

func (p *stubProvider) promptCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prompts)
}

func newStubAnalyzer(respond func(prompt string) (Generation, error)) (*Analyzer, *stubProvider) {
	p := &stubProvider{respond: respond}
	caller := NewCaller(p, 7, time.Millisecond)
	return NewAnalyzer(caller, 100, 50), p
}

func TestParseTopics(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"plain list", "delivery, speed, app issues", []string{"delivery", "speed", "app issues"}},
		{"blank entries dropped", "delivery, speed,  , app issues", []string{"delivery", "speed", "app issues"}},
		{"duplicates dropped", "speed, speed, delivery", []string{"speed", "delivery"}},
		{"no topics sentinel", "no topics", nil},
		{"no topics mixed case", "No Topics", nil},
		{"empty", "", nil},
		{"whitespace only", "   ", nil},
		{"terminal failure sentinel", "An unexpected API error occurred: boom", nil},
		{"exhaustion sentinel", "Failed to get response after 7 retries due to quota/rate limit: x", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseTopics(tc.raw)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ParseTopics(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestAnalyzeAll(t *testing.T) {
	a, _ := newStubAnalyzer(func(prompt string) (Generation, error) {
		if strings.HasPrefix(prompt, "Analyze the sentiment") {
			return Generation{Text: "Positive"}, nil
		}
		return Generation{Text: "delivery, speed"}, nil
	})

	feedback := []string{"great delivery", "fast shipping", "nice app"}
	var seen [][2]int
	sentiments, topics := a.AnalyzeAll(context.Background(), feedback, func(done, total int) {
		seen = append(seen, [2]int{done, total})
	})

	if len(sentiments) != 3 || len(topics) != 3 {
		t.Fatalf("result lengths %d/%d, want 3/3", len(sentiments), len(topics))
	}
	for i, s := range sentiments {
		if s != "Positive" {
			t.Fatalf("sentiments[%d] = %q", i, s)
		}
		if !reflect.DeepEqual(topics[i], []string{"delivery", "speed"}) {
			t.Fatalf("topics[%d] = %v", i, topics[i])
		}
	}
	want := [][2]int{{1, 3}, {2, 3}, {3, 3}}
	if !reflect.DeepEqual(seen, want) {
		t.Fatalf("progress callbacks %v, want %v", seen, want)
	}
}

func TestAnalyzeAllDegradedItem(t *testing.T) {
	// One bad record must not abort the batch: its slots carry the sentinel
	// and nil topics while neighbours analyze normally.
	a, _ := newStubAnalyzer(func(prompt string) (Generation, error) {
		if strings.Contains(prompt, "broken record") {
			return Generation{Blocked: true, BlockReason: "SAFETY"}, nil
		}
		if strings.HasPrefix(prompt, "Analyze the sentiment") {
			return Generation{Text: "Negative"}, nil
		}
		return Generation{Text: "support"}, nil
	})

	sentiments, topics := a.AnalyzeAll(context.Background(), []string{"fine", "broken record", "fine too"}, nil)
	if sentiments[0] != "Negative" || sentiments[2] != "Negative" {
		t.Fatalf("healthy records degraded: %v", sentiments)
	}
	if !IsBlockedResponse(sentiments[1]) {
		t.Fatalf("sentiments[1] = %q", sentiments[1])
	}
	if topics[1] != nil {
		t.Fatalf("topics[1] = %v, want nil", topics[1])
	}
}

func TestSummarizeEmptyCorpus(t *testing.T) {
	a, p := newStubAnalyzer(nil)
	got := a.Summarize(context.Background(), nil)
	if got != emptySummaryMessage {
		t.Fatalf("got %q", got)
	}
	if p.promptCount() != 0 {
		t.Fatalf("expected no provider calls, got %d", p.promptCount())
	}
}

func TestSummarizeSampleCap(t *testing.T) {
	p := &stubProvider{respond: func(string) (Generation, error) {
		return Generation{Text: "summary text"}, nil
	}}
	a := NewAnalyzer(NewCaller(p, 7, time.Millisecond), 2, 50)

	got := a.Summarize(context.Background(), []string{"alpha", "beta", "gamma"})
	if got != "summary text" {
		t.Fatalf("got %q", got)
	}
	prompt := p.prompts[0]
	if !strings.Contains(prompt, "alpha") || !strings.Contains(prompt, "beta") {
		t.Fatalf("sampled records missing from prompt")
	}
	if strings.Contains(prompt, "gamma") {
		t.Fatalf("record past the sample cap leaked into prompt")
	}
}

func TestChatPrompt(t *testing.T) {
	p := &stubProvider{respond: func(string) (Generation, error) {
		return Generation{Text: "the answer"}, nil
	}}
	a := NewAnalyzer(NewCaller(p, 7, time.Millisecond), 100, 2)

	got := a.Chat(context.Background(), []string{"one", "two", "three"}, "overall summary", "what is slow?")
	if got != "the answer" {
		t.Fatalf("got %q", got)
	}
	prompt := p.prompts[0]
	for _, want := range []string{"one", "two", "overall summary", "what is slow?"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "three") {
		t.Fatalf("record past the context cap leaked into prompt")
	}
}

func TestSentimentDistribution(t *testing.T) {
	got := SentimentDistribution([]string{
		"Positive", "positive ", "NEGATIVE", "Neutral",
		"An unexpected API error occurred: boom",
		"Mixed",
	})
	want := map[string]int{"Positive": 2, "Negative": 1, "Neutral": 1, "Error": 2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
