package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"authservice/backend/internal/logging"
	"authservice/backend/internal/problem"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeProblem renders err as an application/problem+json document. Internal
// failures are logged in full; the response carries only the generic text.
func (s *Server) writeProblem(w http.ResponseWriter, r *http.Request, err error) {
	detail := problem.Translate(err)
	if detail.IsInternal() {
		logging.LogError(r.Context(), s.logger, "request failed", err,
			"method", r.Method,
			"path", r.URL.Path,
		)
	} else {
		s.logger.DebugContext(r.Context(), "request rejected",
			"method", r.Method,
			"path", r.URL.Path,
			"code", detail.Code,
		)
	}
	writeProblemDetail(w, detail)
}

func writeProblemDetail(w http.ResponseWriter, detail problem.Detail) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(detail.Status)
	_ = json.NewEncoder(w).Encode(detail)
}

func writeMethodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeProblemDetail(w, problem.Detail{
		Type:        "about:blank",
		Title:       http.StatusText(http.StatusMethodNotAllowed),
		Status:      http.StatusMethodNotAllowed,
		Detail:      "method not allowed",
		Code:        "METHOD_NOT_ALLOWED",
		Description: "The request method is not supported for this resource",
	})
}
