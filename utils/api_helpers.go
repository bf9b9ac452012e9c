package utils

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/raushankrgupta/fitly-tryon/apperrors"
	"github.com/raushankrgupta/fitly-tryon/models"
)

// RespondJSON sends a JSON response with the given status code and payload.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are already sent; nothing left but logging.
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// RespondError sends a JSON error body and records the message in logger.
// If logger is nil the message goes to the standard logger.
func RespondError(w http.ResponseWriter, logger *RequestLog, message string, status int) {
	if logger != nil {
		logger.Add(message)
	} else {
		log.Println("[Error]", message)
	}
	RespondJSON(w, status, models.ErrorResponse{Error: message})
}

// RespondAppError maps err onto its status code and {error, details} body.
// Errors outside the taxonomy are reported as an internal failure.
func RespondAppError(w http.ResponseWriter, logger *RequestLog, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Wrap(apperrors.KindInternal, "Unknown error occurred", err)
	}
	if logger != nil {
		logger.Addf("%s: %v", appErr.Kind, err)
	}
	RespondJSON(w, appErr.Kind.HTTPStatus(), models.ErrorResponse{
		Error:   appErr.Message,
		Details: appErr.Details,
	})
}

// CORSOptions configures CORSMiddleware.
type CORSOptions struct {
	AllowedOrigin  string
	AllowedMethods string
	AllowedHeaders string
	MaxAge         time.Duration
}

// CORSMiddleware sets permissive CORS headers and answers pre-flight
// OPTIONS requests with 204 No Content.
func CORSMiddleware(opts CORSOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", opts.AllowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", opts.AllowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", opts.AllowedHeaders)
			if opts.MaxAge > 0 {
				w.Header().Set("Access-Control-Max-Age", strconv.Itoa(int(opts.MaxAge.Seconds())))
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LatencyMiddleware logs the duration of each request
func LatencyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[LATENCY] %s %s - %v", r.Method, r.URL.Path, time.Since(start))
	})
}
