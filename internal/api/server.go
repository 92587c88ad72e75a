package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/scribe/internal/processor"
	"github.com/MikeSquared-Agency/scribe/internal/response"
	"github.com/MikeSquared-Agency/scribe/internal/store"
)

// maxBodyBytes bounds page snapshots posted to the API.
const maxBodyBytes = 16 << 20

// ArchiveReader reads the archive log.
type ArchiveReader interface {
	ListArchives(ctx context.Context, limit int) ([]store.Archive, error)
	GetArchive(ctx context.Context, id uuid.UUID) (*store.Archive, error)
}

type Server struct {
	router   *chi.Mux
	port     int
	proc     *processor.Processor
	archives ArchiveReader
	logger   *slog.Logger
	http     *http.Server
}

// NewServer wires the routes. archives may be nil when no database is
// configured; apiToken may be empty to leave /api/v1 open.
func NewServer(port int, apiToken string, proc *processor.Processor, archives ArchiveReader, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		port:     port,
		proc:     proc,
		archives: archives,
		logger:   logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/scribe/status", s.status)

	router.Group(func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))
		r.Post("/api/v1/thread", s.thread)
		r.Post("/api/v1/prompt", s.prompt)
		r.Post("/api/v1/response/parse", s.parseResponse)
		r.Post("/api/v1/archive/draft", s.draft)
		r.Post("/api/v1/archive/summarize", s.summarize)
		r.Post("/api/v1/archive", s.save)
		r.Get("/api/v1/archives", s.listArchives)
		r.Get("/api/v1/archives/{id}", s.getArchive)
	})

	return s
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.http = &http.Server{Addr: addr, Handler: s.router}
	s.logger.Info("API server starting", "addr", addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// BearerAuthMiddleware rejects requests without the expected bearer token.
// An empty token disables the check.
func BearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"agent":    "scribe",
		"status":   "ok",
		"notion":   s.proc.CanExport(),
		"headless": s.proc.Headless(),
		"archive":  s.archives != nil,
	})
}

type promptRequest struct {
	PageID string `json:"page_id"`
	HTML   string `json:"html"`
}

type promptResponse struct {
	Prompt    string `json:"prompt"`
	Messages  int    `json:"messages"`
	Injected  bool   `json:"injected"`
	Selector  string `json:"selector,omitempty"`
	Clipboard bool   `json:"clipboard"`
}

type parseRequest struct {
	Text string `json:"text"`
}

type parseResponse struct {
	Found  bool             `json:"found"`
	Record *response.Record `json:"record,omitempty"`
}

type draftRequest struct {
	PageID        string `json:"page_id"`
	HTML          string `json:"html"`
	ResponseIndex int    `json:"response_index"`
}

type saveRequest struct {
	PageID string          `json:"page_id"`
	Record response.Record `json:"record"`
}

// thread handles POST /api/v1/thread. The body is the raw page HTML.
func (s *Server) thread(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	msgs, err := s.proc.Transcript(string(body))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"messages": msgs,
		"count":    len(msgs),
	})
}

// prompt handles POST /api/v1/prompt.
func (s *Server) prompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.proc.PreparePrompt(req.PageID, req.HTML)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, promptResponse{
		Prompt:    res.Prompt,
		Messages:  res.Messages,
		Injected:  res.Outcome.Injected,
		Selector:  res.Outcome.Selector,
		Clipboard: res.Outcome.Clipboard,
	})
}

// parseResponse handles POST /api/v1/response/parse.
func (s *Server) parseResponse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if !decode(w, r, &req) {
		return
	}
	fields, err := response.Parse(req.Text)
	if err != nil {
		writeJSON(w, http.StatusOK, parseResponse{Found: false})
		return
	}
	rec := response.ToRecord(fields)
	writeJSON(w, http.StatusOK, parseResponse{Found: true, Record: &rec})
}

// draft handles POST /api/v1/archive/draft.
func (s *Server) draft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if !decode(w, r, &req) {
		return
	}
	d, err := s.proc.DraftRecord(req.PageID, req.HTML, req.ResponseIndex)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// summarize handles POST /api/v1/archive/summarize.
func (s *Server) summarize(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if !decode(w, r, &req) {
		return
	}
	d, err := s.proc.Summarize(r.Context(), req.PageID, req.HTML)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// save handles POST /api/v1/archive.
func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if !decode(w, r, &req) {
		return
	}
	if !s.proc.CanExport() {
		s.fail(w, processor.ErrNoCredentials)
		return
	}
	res := s.proc.Save(r.Context(), req.PageID, req.Record)
	code := http.StatusOK
	if !res.Success {
		code = http.StatusBadGateway
	}
	writeJSON(w, code, res)
}

// listArchives handles GET /api/v1/archives.
func (s *Server) listArchives(w http.ResponseWriter, r *http.Request) {
	if s.archives == nil {
		writeError(w, http.StatusServiceUnavailable, "archive database is not configured")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit: "+v)
			return
		}
		limit = n
	}

	rows, err := s.archives.ListArchives(r.Context(), limit)
	if err != nil {
		s.logger.Error("list archives failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list archives failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"archives": rows, "count": len(rows)})
}

// getArchive handles GET /api/v1/archives/{id}.
func (s *Server) getArchive(w http.ResponseWriter, r *http.Request) {
	if s.archives == nil {
		writeError(w, http.StatusServiceUnavailable, "archive database is not configured")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid archive id")
		return
	}

	a, err := s.archives.GetArchive(r.Context(), id)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "archive not found")
		return
	}
	if err != nil {
		s.logger.Error("get archive failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "get archive failed")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// fail maps processor errors to status codes.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, processor.ErrThreadNotFound), errors.Is(err, processor.ErrNoResponse):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, processor.ErrEmptyResponse):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, processor.ErrNoCredentials), errors.Is(err, processor.ErrNoModel):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
