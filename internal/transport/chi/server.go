// Package chi exposes the question answering and ingestion services over
// HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/docq-dev/docq/internal/auth"
	"github.com/docq-dev/docq/internal/domain"
	domask "github.com/docq-dev/docq/internal/domain/ask"
	"github.com/docq-dev/docq/internal/domain/citation"
	askuc "github.com/docq-dev/docq/internal/usecase/ask"
	healthuc "github.com/docq-dev/docq/internal/usecase/health"
	ingestuc "github.com/docq-dev/docq/internal/usecase/ingest"
)

// maxUploadBytes bounds one document upload body.
const maxUploadBytes = 32 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
// The writer controls the response shape (ask keeps answer/citations fields).
type errorHandler func(w http.ResponseWriter, err error, msg string, write errWriter) bool

// Server routes HTTP requests to the usecase services.
type Server struct {
	ask           *askuc.Service
	ingest        *ingestuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler

	matchCount     int
	matchThreshold float64
}

// NewServer creates the HTTP API server.
func NewServer(
	ask *askuc.Service,
	ingest *ingestuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ask:    ask,
		ingest: ingest,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotAuthenticated, http.StatusUnauthorized),
		sentinelHandler(domain.ErrPermissionDenied, http.StatusForbidden),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusBadGateway),
		sentinelHandler(domain.ErrCompletionUnavailable, http.StatusBadGateway),
		sentinelHandler(domain.ErrRetrievalFailed, http.StatusInternalServerError),
	}
	return s
}

// WithRetrievalDefaults overrides the service-wide retrieval defaults
// applied when a request leaves match_count or match_threshold unset.
func (s *Server) WithRetrievalDefaults(matchCount int, matchThreshold float64) *Server {
	s.matchCount = matchCount
	s.matchThreshold = matchThreshold
	return s
}

// Routes registers the API routes on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/v1/ask", s.handleAsk)
	r.Put("/api/v1/documents/{documentID}", s.handleIngest)
	r.Post("/api/v1/documents", s.handleIngestNew)
	r.Delete("/api/v1/documents/{documentID}", s.handleDelete)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

// --- Ask ---

// askRequest is the ask payload. Zero (or omitted) match_count and
// match_threshold select the configured defaults.
type askRequest struct {
	Question       string           `json:"question"`
	History        []domain.Message `json:"history,omitempty"`
	MatchCount     int              `json:"match_count,omitempty"`
	MatchThreshold float64          `json:"match_threshold,omitempty"`
}

type citationResponse struct {
	DocumentID    string  `json:"document_id"`
	DocumentTitle string  `json:"document_title"`
	ChunkIndex    int     `json:"chunk_index"`
	Snippet       string  `json:"snippet"`
	Similarity    float64 `json:"similarity"`
}

type askResponse struct {
	Answer    *string            `json:"answer"`
	Citations []citationResponse `json:"citations"`
	Error     string             `json:"error,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var body askRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeAskError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if body.MatchCount == 0 {
		body.MatchCount = s.matchCount
	}
	if body.MatchThreshold == 0 {
		body.MatchThreshold = s.matchThreshold
	}

	req, err := domask.New(body.Question, body.History, body.MatchCount, body.MatchThreshold)
	if err != nil {
		writeAskError(w, http.StatusBadRequest, err.Error())
		return
	}

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeAskError(w, http.StatusUnauthorized, domain.ErrNotAuthenticated.Error())
		return
	}

	answer, err := s.ask.Answer(r.Context(), identity.TenantID, &req)
	if err != nil {
		s.handleDomainError(w, err, writeAskError)
		return
	}

	text := answer.Text()
	writeJSON(w, http.StatusOK, askResponse{
		Answer:    &text,
		Citations: citationsToResponse(answer.Citations()),
	})
}

func citationsToResponse(citations []citation.Citation) []citationResponse {
	out := make([]citationResponse, len(citations))
	for i := range citations {
		c := &citations[i]
		out[i] = citationResponse{
			DocumentID:    c.DocumentID(),
			DocumentTitle: c.DocumentTitle(),
			ChunkIndex:    c.ChunkIndex(),
			Snippet:       c.Snippet(),
			Similarity:    c.Similarity(),
		}
	}
	return out
}

// --- Documents ---

type ingestRequest struct {
	Title    string `json:"title"`
	Filename string `json:"filename"`
	Content  []byte `json:"content"` // base64 in JSON
}

type ingestResponse struct {
	DocumentID     string `json:"document_id"`
	ChunkCount     int    `json:"chunk_count"`
	EmbeddedChunks int    `json:"embedded_chunks"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	s.ingestDocument(w, r, chi.URLParam(r, "documentID"))
}

func (s *Server) handleIngestNew(w http.ResponseWriter, r *http.Request) {
	s.ingestDocument(w, r, "")
}

func (s *Server) ingestDocument(w http.ResponseWriter, r *http.Request, documentID string) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var body ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body.Content) == 0 {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, domain.ErrNotAuthenticated.Error())
		return
	}

	res, err := s.ingest.IngestDocument(
		r.Context(), identity.TenantID, documentID, body.Title, body.Filename, body.Content,
	)
	if err != nil {
		s.handleDomainError(w, err, writeError)
		return
	}

	status := http.StatusOK
	if documentID == "" {
		status = http.StatusCreated
		w.Header().Set("Location", "/api/v1/documents/"+res.DocumentID)
	}
	writeJSON(w, status, ingestResponse{
		DocumentID:     res.DocumentID,
		ChunkCount:     res.ChunkCount,
		EmbeddedChunks: res.EmbeddedChunks,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, domain.ErrNotAuthenticated.Error())
		return
	}

	err := s.ingest.DeleteDocument(r.Context(), identity.TenantID, chi.URLParam(r, "documentID"))
	if err != nil {
		s.handleDomainError(w, err, writeError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Health ---

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Status: string(report.Status), Checks: checks})
}

// --- Error handling ---

type errWriter func(w http.ResponseWriter, status int, message string)

func (s *Server) handleDomainError(w http.ResponseWriter, err error, write errWriter) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg, write) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	write(w, http.StatusInternalServerError, "internal error")
}

// sentinelHandler matches a single sentinel error to an HTTP status.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error, msg string, write errWriter) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		write(w, status, msg)
		return true
	}
}

// safeDomainMessage maps an error to a client-safe sentinel message without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotAuthenticated,
		domain.ErrPermissionDenied,
		domain.ErrInvalidRequest,
		domain.ErrDocumentNotFound,
		domain.ErrEmbeddingUnavailable,
		domain.ErrCompletionUnavailable,
		domain.ErrRetrievalFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeAskError keeps the ask response shape stable on failure: the answer
// is null and citations are an empty array.
func writeAskError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, askResponse{
		Answer:    nil,
		Citations: []citationResponse{},
		Error:     message,
	})
}
