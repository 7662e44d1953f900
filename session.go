package main

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const defaultSessionTTL = 2 * time.Hour

var (
	ErrAnalysisRunning     = errors.New("analysis already running for this session")
	ErrAnalysisDone        = errors.New("analysis already completed for this file")
	ErrNoFeedbackLoaded    = errors.New("no feedback loaded: upload a file first")
	ErrAnalysisNotComplete = errors.New("analysis not completed yet")
)

// SessionState holds everything one dashboard session owns: the cleaned
// corpus, the parallel analysis arrays, the summary and the chat transcript.
// It is replaced wholesale on a new upload and destroyed on reset or TTL.
type SessionState struct {
	ID string

	mu sync.Mutex

	sourceName string
	format     Format
	lemmatized bool
	uploadedAt time.Time

	feedback   []string
	sentiments []string
	topics     [][]string
	summary    string
	chat       []ChatTurn

	analysisRunning  bool
	analysisComplete bool
	progress         int
}

// ChatTurn is one entry of the conversational transcript.
type ChatTurn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ResetForUpload installs a freshly ingested corpus and clears every piece of
// state derived from the previous file. It is rejected while an analysis is
// in flight: replacing the corpus mid-run would let the stale goroutine
// install results that no longer line up with the feedback.
func (s *SessionState) ResetForUpload(sourceName string, format Format, lemmatized bool, feedback []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.analysisRunning {
		return ErrAnalysisRunning
	}
	s.sourceName = sourceName
	s.format = format
	s.lemmatized = lemmatized
	s.uploadedAt = time.Now()
	s.feedback = feedback
	s.sentiments = nil
	s.topics = nil
	s.summary = ""
	s.chat = nil
	s.analysisRunning = false
	s.analysisComplete = false
	s.progress = 0
	return nil
}

// StartAnalysis marks the session as analyzing and hands back a copy of the
// corpus for the batch driver. Only one analysis may run at a time, and a
// completed file must be re-uploaded before it can be analyzed again.
func (s *SessionState) StartAnalysis() (feedback []string, sourceName string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.analysisRunning {
		return nil, "", ErrAnalysisRunning
	}
	if s.analysisComplete {
		return nil, "", ErrAnalysisDone
	}
	if len(s.feedback) == 0 {
		return nil, "", ErrNoFeedbackLoaded
	}
	s.analysisRunning = true
	s.progress = 0
	return append([]string(nil), s.feedback...), s.sourceName, nil
}

func (s *SessionState) SetProgress(done int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = done
}

// FinishAnalysis installs the index-aligned results and the summary.
func (s *SessionState) FinishAnalysis(sentiments []string, topics [][]string, summary string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentiments = sentiments
	s.topics = topics
	s.summary = summary
	s.progress = len(s.feedback)
	s.analysisRunning = false
	s.analysisComplete = true
}

// Progress reports the batch position and lifecycle flags.
func (s *SessionState) Progress() (done, total int, running, complete bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress, len(s.feedback), s.analysisRunning, s.analysisComplete
}

// RecordCount returns the size of the cleaned corpus.
func (s *SessionState) RecordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.feedback)
}

// ResultsSnapshot copies everything the results and export surfaces need.
// It fails until analysis has completed.
func (s *SessionState) ResultsSnapshot() (feedback, sentiments []string, topics [][]string, summary string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.analysisComplete {
		return nil, nil, nil, "", ErrAnalysisNotComplete
	}
	feedback = append([]string(nil), s.feedback...)
	sentiments = append([]string(nil), s.sentiments...)
	topics = make([][]string, len(s.topics))
	for i, t := range s.topics {
		topics[i] = append([]string(nil), t...)
	}
	return feedback, sentiments, topics, s.summary, nil
}

// ChatInputs copies the context a chat turn needs. Chat is only available
// once analysis has completed.
func (s *SessionState) ChatInputs() (feedback []string, summary string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.analysisComplete {
		return nil, "", ErrAnalysisNotComplete
	}
	return append([]string(nil), s.feedback...), s.summary, nil
}

// AppendChat records one user/assistant exchange and returns the transcript.
func (s *SessionState) AppendChat(question, answer string) []ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = append(s.chat,
		ChatTurn{Role: "user", Content: question},
		ChatTurn{Role: "assistant", Content: answer},
	)
	return append([]ChatTurn(nil), s.chat...)
}

// SessionStore keeps live sessions with a sliding TTL; expired sessions are
// evicted by the cache janitor.
type SessionStore struct {
	ttl      time.Duration
	sessions *cache.Cache
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionStore{
		ttl:      ttl,
		sessions: cache.New(ttl, ttl/2),
	}
}

func (s *SessionStore) Create() *SessionState {
	sess := &SessionState{ID: uuid.NewString()}
	s.sessions.Set(sess.ID, sess, cache.DefaultExpiration)
	return sess
}

func (s *SessionStore) Get(id string) (*SessionState, bool) {
	v, ok := s.sessions.Get(id)
	if !ok {
		return nil, false
	}
	sess := v.(*SessionState)
	// Touch to slide the expiry on every access.
	s.sessions.Set(id, sess, cache.DefaultExpiration)
	return sess, true
}

func (s *SessionStore) Delete(id string) {
	s.sessions.Delete(id)
}

func (s *SessionStore) Count() int {
	return s.sessions.ItemCount()
}
