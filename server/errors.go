package server

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the JSON body of every non-2xx response. Error carries
// the cause only for client errors; server-side failures are logged instead.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	resp := ErrorResponse{Status: status, Message: msg}
	if err != nil {
		if status < 500 {
			resp.Error = err.Error()
		} else if status != http.StatusNotImplemented {
			s.log.ErrorContext(r.Context(), "{Method} {Path} failed: {Error}", r.Method, r.URL.Path, err)
		}
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
