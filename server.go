package main

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Server wires the HTTP surface to the session store, the analyzer and the
// run history. Charts, theming and transcript rendering live in the front
// end; this API only moves data.
type Server struct {
	cfg      Config
	store    *SessionStore
	analyzer *Analyzer
	provider Provider
	db       *sql.DB
}

func NewServer(cfg Config, store *SessionStore, analyzer *Analyzer, provider Provider, db *sql.DB) *Server {
	return &Server{cfg: cfg, store: store, analyzer: analyzer, provider: provider, db: db}
}

func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "feedbacklens",
		BodyLimit: 32 << 20,
	})

	api := app.Group("/api")
	api.Get("/healthz", s.handleHealth)
	api.Get("/runs", s.handleRecentRuns)
	api.Post("/session", s.handleCreateSession)
	api.Post("/session/:id/upload", s.handleUpload)
	api.Post("/session/:id/analyze", s.handleAnalyze)
	api.Get("/session/:id/progress", s.handleProgress)
	api.Get("/session/:id/results", s.handleResults)
	api.Post("/session/:id/chat", s.handleChat)
	api.Get("/session/:id/export", s.handleExport)
	api.Post("/session/:id/reset", s.handleReset)
	return app
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "sessions": s.store.Count()})
}

func (s *Server) handleRecentRuns(c *fiber.Ctx) error {
	if s.db == nil {
		return c.JSON(fiber.Map{"runs": []AnalysisRun{}})
	}
	runs, err := RecentRuns(s.db, c.QueryInt("limit", 20))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	if runs == nil {
		runs = []AnalysisRun{}
	}
	return c.JSON(fiber.Map{"runs": runs})
}

func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	sess := s.store.Create()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session_id": sess.ID})
}

func (s *Server) session(c *fiber.Ctx) (*SessionState, error) {
	sess, ok := s.store.Get(c.Params("id"))
	if !ok {
		return nil, jsonError(c, fiber.StatusNotFound, "session not found")
	}
	return sess, nil
}

func (s *Server) handleUpload(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "missing 'file' upload")
	}
	format, err := FormatForFilename(fh.Filename)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}

	f, err := fh.Open()
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "unreadable upload")
	}
	defer f.Close()
	blob, err := io.ReadAll(f)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "unreadable upload")
	}

	lemmatize := c.QueryBool("lemmatize", s.cfg.Lemmatize)
	feedback, err := IngestAndClean(blob, format, lemmatize)
	if err != nil {
		var formatErr *FormatError
		switch {
		case errors.As(err, &formatErr):
			return jsonError(c, fiber.StatusBadRequest, formatErr.Error())
		case errors.Is(err, ErrEmptyResult):
			return jsonError(c, fiber.StatusUnprocessableEntity, err.Error())
		default:
			return jsonError(c, fiber.StatusInternalServerError, err.Error())
		}
	}

	if err := sess.ResetForUpload(fh.Filename, format, lemmatize, feedback); err != nil {
		return jsonError(c, fiber.StatusConflict, err.Error())
	}
	log.Printf("upload session=%s source=%s format=%s records=%d lemmatize=%t",
		sess.ID, fh.Filename, format, len(feedback), lemmatize)

	return c.JSON(fiber.Map{
		"session_id":   sess.ID,
		"source":       fh.Filename,
		"format":       format,
		"record_count": len(feedback),
	})
}

func (s *Server) handleAnalyze(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}

	feedback, sourceName, err := sess.StartAnalysis()
	if err != nil {
		switch {
		case errors.Is(err, ErrAnalysisRunning), errors.Is(err, ErrAnalysisDone):
			return jsonError(c, fiber.StatusConflict, err.Error())
		default:
			return jsonError(c, fiber.StatusBadRequest, err.Error())
		}
	}

	go s.runAnalysis(sess, sourceName, feedback)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "started",
		"total":  len(feedback),
	})
}

// runAnalysis is the batch driver: sequential per-item calls, progress after
// each item, then the one-shot summary, persistence and notification.
func (s *Server) runAnalysis(sess *SessionState, sourceName string, feedback []string) {
	ctx := context.Background()
	sentiments, topics := s.analyzer.AnalyzeAll(ctx, feedback, func(done, total int) {
		sess.SetProgress(done)
		log.Printf("analysis progress session=%s %d/%d", sess.ID, done, total)
	})
	summary := s.analyzer.Summarize(ctx, feedback)
	sess.FinishAnalysis(sentiments, topics, summary)

	run := AnalysisRun{
		SessionID:   sess.ID,
		SourceName:  sourceName,
		RecordCount: len(feedback),
		Provider:    s.provider.Name(),
		Model:       s.provider.Model(),
		Summary:     summary,
	}
	if s.db != nil {
		id, err := SaveAnalysisRun(s.db, run, feedback, sentiments, topics)
		if err != nil {
			log.Printf("save analysis run error session=%s: %v", sess.ID, err)
		} else {
			run.ID = id
		}
	}
	NotifyAnalysisComplete(s.cfg, run)
	log.Printf("analysis complete session=%s records=%d", sess.ID, len(feedback))
}

func (s *Server) handleProgress(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	done, total, running, complete := sess.Progress()
	return c.JSON(fiber.Map{
		"done":     done,
		"total":    total,
		"running":  running,
		"complete": complete,
	})
}

func (s *Server) handleResults(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	feedback, sentiments, topics, summary, err := sess.ResultsSnapshot()
	if err != nil {
		return jsonError(c, fiber.StatusConflict, err.Error())
	}
	return c.JSON(fiber.Map{
		"feedback":     feedback,
		"sentiments":   sentiments,
		"topics":       topics,
		"summary":      summary,
		"distribution": SentimentDistribution(sentiments),
	})
}

type chatRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}

	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return jsonError(c, fiber.StatusBadRequest, "question must not be empty")
	}

	feedback, summary, err := sess.ChatInputs()
	if err != nil {
		return jsonError(c, fiber.StatusConflict, err.Error())
	}

	answer := s.analyzer.Chat(c.Context(), feedback, summary, question)
	transcript := sess.AppendChat(question, answer)
	return c.JSON(fiber.Map{
		"answer":     answer,
		"transcript": transcript,
	})
}

func (s *Server) handleExport(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	feedback, sentiments, topics, summary, err := sess.ResultsSnapshot()
	if err != nil {
		return jsonError(c, fiber.StatusConflict, err.Error())
	}

	archive, err := BuildExportArchive(feedback, sentiments, topics, summary)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+exportArchiveName+`"`)
	return c.Send(archive)
}

func (s *Server) handleReset(c *fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	s.store.Delete(sess.ID)
	return c.JSON(fiber.Map{"status": "reset"})
}

func jsonError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
