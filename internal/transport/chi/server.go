// Package chi exposes the chat, memory and source operations over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/duet/internal/domain"
	"github.com/kailas-cloud/duet/internal/domain/source"
	"github.com/kailas-cloud/duet/internal/logger"
	healthuc "github.com/kailas-cloud/duet/internal/usecase/health"
)

// maxJSONBody bounds every JSON request body.
const maxJSONBody = 1 << 20

// multipartMemory is the in-memory part of a parsed upload; the rest spills to disk.
const multipartMemory = 8 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server holds the HTTP handlers.
type Server struct {
	chat          ChatService
	memory        MemoryService
	ingest        IngestService
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	chatSvc ChatService,
	memory MemoryService,
	ingest IngestService,
	health HealthService,
	logger *zap.Logger,
) *Server {
	s := &Server{
		chat:   chatSvc,
		memory: memory,
		ingest: ingest,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		payloadTooLargeHandler,
		sentinelHandler(domain.ErrMissingIdentifier, http.StatusBadRequest, CodeMissingIdentifier, true),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, CodeValidationFailed, true),
		sentinelHandler(domain.ErrUnsupportedFormat, http.StatusUnsupportedMediaType, CodeUnsupportedFormat, true),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound, true),
		sentinelHandler(domain.ErrFetchFailed, http.StatusBadGateway, CodeFetchFailed, true),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, CodeEmbeddingProviderError, false),
	}
	return s
}

// Chat handles POST /chat. The reply is always 200 with a response string,
// except for bodies that are not JSON at all.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ChatResponse{Response: "Error: Invalid request body"})
		return
	}

	reply := s.chat.Respond(r.Context(), req.toDomain())
	writeJSON(w, http.StatusOK, ChatResponse{Response: reply.Response()})
}

// CreateConversation handles POST /conversations.
func (s *Server) CreateConversation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusCreated, ConversationResponse{ConversationID: uuid.NewString()})
}

// StoreMemory handles POST /memories.
func (s *Server) StoreMemory(w http.ResponseWriter, r *http.Request) {
	var req MemoryStoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			s.handleDomainError(w, r, err)
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	md, err := s.memory.Store(r.Context(), req.toDomain())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, MemoryStoreResponse{Status: "stored", Metadata: md})
}

// RetrieveMemories handles POST /memories/retrieve.
func (s *Server) RetrieveMemories(w http.ResponseWriter, r *http.Request) {
	var req ConversationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	items, err := s.memory.RetrieveAll(r.Context(), req.ConversationID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// RetrieveLatestMemories handles POST /memories/latest.
func (s *Server) RetrieveLatestMemories(w http.ResponseWriter, r *http.Request) {
	var req ConversationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	items, err := s.memory.RetrieveLatest(r.Context(), req.ConversationID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// SearchMemories handles POST /memories/search.
func (s *Server) SearchMemories(w http.ResponseWriter, r *http.Request) {
	var req MemorySearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	matches, err := s.memory.Recall(r.Context(), req.ConversationID, req.Query, req.TopK)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	hits := make([]MemorySearchHit, len(matches))
	for i, m := range matches {
		hits[i] = MemorySearchHit{Score: m.Score, Text: m.Text, Metadata: m.Metadata}
	}
	writeJSON(w, http.StatusOK, hits)
}

// UploadDocument handles POST /upload (multipart field "file").
func (s *Server) UploadDocument(w http.ResponseWriter, r *http.Request) {
	limit := s.ingest.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid multipart form: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "No file part")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	res, err := s.ingest.Upload(r.Context(), header.Filename, data)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, SourceResponse{Name: res.Name, Characters: res.Characters})
}

// ListDocuments handles GET /documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	s.listSources(w, r, source.KindDocument)
}

// AddLink handles POST /links.
func (s *Server) AddLink(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	res, err := s.ingest.Crawl(r.Context(), req.URL)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, SourceResponse{Name: res.Name, Characters: res.Characters})
}

// ListLinks handles GET /links.
func (s *Server) ListLinks(w http.ResponseWriter, r *http.Request) {
	s.listSources(w, r, source.KindLink)
}

func (s *Server) listSources(w http.ResponseWriter, r *http.Request, kind source.Kind) {
	names, err := s.ingest.List(r.Context(), kind)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// With detail the full error text is returned; otherwise only the sentinel's.
func sentinelHandler(sentinel error, status int, code ErrorCode, detail bool) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		msg := sentinel.Error()
		if detail {
			msg = err.Error()
		}
		writeError(w, status, code, msg)
		return true
	}
}

func payloadTooLargeHandler(w http.ResponseWriter, err error) bool {
	var mbe *http.MaxBytesError
	if !errors.As(err, &mbe) {
		return false
	}
	writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "payload too large")
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Info("request failed", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
