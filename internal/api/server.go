package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"mbti/internal/domain"
	"mbti/internal/labels"
	"mbti/internal/service"
)

const maxBodyBytes = 1 << 20

type Server struct {
	svc    domain.MBTIService
	logger *slog.Logger
}

type predictRequest struct {
	Text   *string `json:"text"`
	UserID string  `json:"user_id,omitempty"`
}

func NewServer(svc domain.MBTIService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, logger: logger}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/predict", s.handlePredict)
	mux.HandleFunc("/users/", s.handleUsers)
	return withCORS(s.withRequestLog(mux))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("no route for %s", r.URL.Path))
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "MBTI API is running! POST text to /predict."})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "model_id": s.svc.ModelID()})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req predictRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	if req.Text == nil {
		writeErr(w, http.StatusBadRequest, service.ErrTextRequired)
		return
	}
	pred, err := s.svc.Classify(r.Context(), domain.PredictRequest{Text: *req.Text, UserID: req.UserID})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidText):
			writeErr(w, http.StatusBadRequest, err)
		default:
			s.logger.Error("predict failed", "request_id", requestID(r), "err", err)
			writeErr(w, http.StatusInternalServerError, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/users/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "mbti" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("no route for %s", r.URL.Path))
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	res, err := s.svc.UserResult(r.Context(), parts[0])
	switch {
	case errors.Is(err, service.ErrNoStore):
		writeErr(w, http.StatusServiceUnavailable, err)
	case errors.Is(err, domain.ErrNotFound):
		writeErr(w, http.StatusNotFound, fmt.Errorf("no result for user %q", parts[0]))
	case err != nil:
		s.logger.Error("user lookup failed", "request_id", requestID(r), "err", err)
		writeErr(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeErr(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	if err != nil {
		msg = err.Error()
	}
	switch {
	case errors.Is(err, service.ErrTextTooShort), errors.Is(err, service.ErrTextRequired):
		return apiError{Code: "MBTI-API-4001", Message: "Text is too short! " + msg}
	case errors.Is(err, labels.ErrInvalidIndex):
		return apiError{Code: "MBTI-API-5001", Message: "Model returned an invalid index."}
	}
	switch status {
	case http.StatusBadRequest:
		return apiError{Code: "MBTI-API-4000", Message: msg}
	case http.StatusNotFound:
		return apiError{Code: "MBTI-API-4040", Message: msg}
	case http.StatusMethodNotAllowed:
		return apiError{Code: "MBTI-API-4050", Message: msg}
	case http.StatusServiceUnavailable:
		return apiError{Code: "MBTI-API-5030", Message: msg}
	case http.StatusInternalServerError:
		return apiError{Code: "MBTI-API-5000", Message: "Internal error."}
	}
	return apiError{Code: fmt.Sprintf("MBTI-API-%d0", status), Message: msg}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		r = r.WithContext(contextWithRequestID(r.Context(), id))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start),
		)
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
