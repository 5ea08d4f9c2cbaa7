package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with its technical details and request ID, then
// mapped through core.MapError to a user message. The status code follows
// from the message code, and the body format from the request: an HTMX
// fragment, JSON, or a full HTML page.

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/JonMunkholm/insights/internal/core"
	"github.com/JonMunkholm/insights/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// codeStatus maps user message codes to HTTP status codes.
var codeStatus = map[string]int{
	"FILE001": http.StatusRequestEntityTooLarge,
	"FILE002": http.StatusBadRequest,
	"FILE004": http.StatusBadRequest,
	"FILE005": http.StatusBadRequest,
	"COL001":  http.StatusUnprocessableEntity,
	"COL002":  http.StatusUnprocessableEntity,
	"STAT001": http.StatusUnprocessableEntity,
	"FLT001":  http.StatusUnprocessableEntity,
	"VAL001":  http.StatusBadRequest,
	"DS001":   http.StatusNotFound,
	"UPL002":  http.StatusServiceUnavailable,
	"UPL004":  http.StatusBadRequest,
	"UPL005":  http.StatusRequestTimeout,
	"RATE001": http.StatusTooManyRequests,
	"AUTH001": http.StatusUnauthorized,
	"AUTH002": http.StatusForbidden,
}

// statusFor returns the HTTP status for a user message code.
func statusFor(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped user message. Errors with
// no known user message are logged at error level.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	userErr := core.NewUserError(err)
	userMsg := userErr.User
	status := statusFor(userMsg.Code)

	level := slog.LevelWarn
	if !core.IsUserFacing(err) || status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", userErr.Technical.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	switch {
	case isHTMX(r):
		renderErrorPartial(w, r, userMsg, status)
	case wantsJSON(r):
		respondErrorJSON(w, r, userMsg, status)
	default:
		respondErrorHTML(w, r, userMsg, status)
	}
}

// rejectRequest adapts respondError for middleware rejections.
func (s *Server) rejectRequest(w http.ResponseWriter, r *http.Request, err error) {
	s.respondError(w, r, err)
}

func respondErrorJSON(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

func respondErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ErrorPage(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		slog.Error("render error page", "error", err)
	}
}

// renderErrorPartial renders an HTMX-compatible error fragment.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		slog.Error("render error partial", "error", err)
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers a JSON response. API routes
// always get JSON.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}
