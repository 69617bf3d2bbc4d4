package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/helixir/research-paper-finder/internal/observability"
)

const (
	maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies
	sessionIDPrefix    = "session_"
)

// searchRequest is the JSON request body for POST /search.
type searchRequest struct {
	Query string `json:"query" validate:"required"`
}

// chatRequest is the JSON request body for POST /chat.
type chatRequest struct {
	Query     string `json:"query" validate:"required"`
	SessionID string `json:"sessionId" validate:"omitempty,max=100"`
}

// searchHandler handles POST /search.
func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}

	resp, err := s.service.Search(r.Context(), req.Query)
	if err != nil {
		s.logServiceError(r, req.Query, err)
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, toSearchResponse(resp))
}

// chatHandler handles POST /chat.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decode(w, r, &req) {
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = sessionIDPrefix + uuid.NewString()
	}

	resp, err := s.service.Chat(r.Context(), req.Query)
	if err != nil {
		s.logServiceError(r, req.Query, err)
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, toChatResponse(resp, sessionID))
}

// healthHandler handles GET /health with a live probe of every provider.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, s.service.Health(r.Context()))
}

// statsHandler handles GET /stats.
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, s.service.Stats())
}

// decode reads a size-limited JSON body into dst and validates it. On failure
// it writes a 400 response and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, codeInvalidRequest, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "failed to read request body")
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid JSON in request body")
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, validationMessage(err))
		return false
	}
	return true
}

func (s *Server) logServiceError(r *http.Request, query string, err error) {
	requestID := observability.RequestIDFromContext(r.Context())
	logger := observability.WithQueryContext(s.logger, requestID, query)
	logger.Warn().
		Err(err).
		Str("path", r.URL.Path).
		Msg("request rejected")
}

// validationMessage renders the first failed field rule.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	switch fe.Field() {
	case "Query":
		return "query must be a non-empty string"
	case "SessionID":
		return "session ID too long"
	default:
		return "invalid " + fe.Field()
	}
}
