package http

import (
	"net/http"
	"strings"

	"github.com/utafrali/ReviewInsights/pkg/httputil"
	"github.com/utafrali/ReviewInsights/pkg/logger"
)

// ContentTypeJSON rejects bodies that are not declared as application/json
// with the same 400 a request missing its required fields gets.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
					Error:     "Content-Type must be application/json",
					Code:      "INVALID_INPUT",
					RequestID: logger.CorrelationIDFromContext(r.Context()),
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
