package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"lgd_site/lgd"
	"lgd_site/logging"
	"lgd_site/utils"
)

// errBadRequest marks malformed query parameters.
var errBadRequest = errors.New("bad request")

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, utils.ErrInvalidUnit),
		errors.Is(err, utils.ErrInvalidValue),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, lgd.ErrUnknownTier):
		return http.StatusNotFound
	case errors.Is(err, lgd.ErrAggregationUnavailable):
		return http.StatusServiceUnavailable
	case lgd.IsDataLoadError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func sendErrorResponse(w http.ResponseWriter, message string, code int) {
	response := map[string]interface{}{
		"error":     message,
		"code":      code,
		"status":    http.StatusText(code),
		"timestamp": time.Now().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(response)
}

// writeError logs err and answers with the status it maps to.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusForError(err)
	log := logging.FromContext(r.Context(), "handlers")
	if code >= http.StatusInternalServerError {
		log.Error("request failed", "path", r.URL.Path, "status", code, "error", err)
	} else {
		log.Warn("request rejected", "path", r.URL.Path, "status", code, "error", err)
	}
	sendErrorResponse(w, err.Error(), code)
}

func sendJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// SectionError is the error half of a dashboard section.
type SectionError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Section is one independently computed part of a response: either data or
// an error, never both.
type Section struct {
	OK    bool          `json:"ok"`
	Data  interface{}   `json:"data,omitempty"`
	Error *SectionError `json:"error,omitempty"`
}

func newSection(data interface{}, err error) Section {
	if err != nil {
		return Section{Error: &SectionError{Message: err.Error(), Code: statusForError(err)}}
	}
	return Section{OK: true, Data: data}
}
