package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/helixir/research-paper-finder/internal/domain"
	"github.com/helixir/research-paper-finder/internal/research"
)

// Error codes returned in the error envelope.
const (
	codeInvalidRequest   = "invalid_request"
	codeNotFound         = "not_found"
	codeMethodNotAllowed = "method_not_allowed"
	codeInternal         = "internal_error"
)

// successResponse wraps every successful payload.
type successResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

type searchResponse struct {
	SearchID    string   `json:"searchId"`
	Papers      any      `json:"papers"`
	SearchTerms []string `json:"searchTerms"`
}

type chatResponse struct {
	SearchID    string   `json:"searchId"`
	Response    string   `json:"response"`
	Papers      any      `json:"papers"`
	SearchTerms []string `json:"searchTerms"`
	SessionID   string   `json:"sessionId"`
}

func toSearchResponse(r *research.SearchResponse) searchResponse {
	return searchResponse{
		SearchID:    r.SearchID.String(),
		Papers:      r.Papers,
		SearchTerms: r.SearchTerms,
	}
}

func toChatResponse(r *research.ChatResponse, sessionID string) chatResponse {
	return chatResponse{
		SearchID:    r.SearchID.String(),
		Response:    r.Response,
		Papers:      r.Papers,
		SearchTerms: r.SearchTerms,
		SessionID:   sessionID,
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	// Headers are already sent; an encode failure cannot be reported.
	_ = json.NewEncoder(w).Encode(v)
}

// writeSuccess writes data inside the success envelope.
func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: data})
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, errorResponse{
		Error: errorBody{Code: code, Message: message},
	})
}

// writeServiceError maps a service error to a response. Validation failures
// surface their message; anything else is reported generically.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, verr.Message)
		return
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid input")
		return
	}
	writeError(w, http.StatusInternalServerError, codeInternal, "internal server error")
}
