package middleware

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Response is the envelope every JSON endpoint writes.
type Response struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes the page window of a list response.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
	Limit int `json:"limit"`
}

func writeJSON(w http.ResponseWriter, statusCode int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

// RespondWithError sends a failure envelope with the given message.
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, Response{Success: false, Message: message})
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithError(w, statusCode, message)
}

// RespondWithValidationErrors sends a 400 failure envelope listing field errors.
func RespondWithValidationErrors(w http.ResponseWriter, errors []ValidationError) {
	messages := make([]string, 0, len(errors))
	for _, e := range errors {
		messages = append(messages, e.Field+": "+e.Message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(struct {
		Success bool     `json:"success"`
		Message string   `json:"message"`
		Errors  []string `json:"errors"`
	}{Success: false, Message: "validation failed", Errors: messages})
}

// RespondWithJSON sends a success envelope wrapping the payload.
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	writeJSON(w, statusCode, Response{Success: true, Data: data})
}

// RespondWithPage sends a success envelope with list data and its page window.
func RespondWithPage(w http.ResponseWriter, statusCode int, data interface{}, p Pagination) {
	writeJSON(w, statusCode, Response{Success: true, Data: data, Pagination: &p})
}

// RespondWithMessage sends a success envelope that carries only a message.
func RespondWithMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, Response{Success: true, Message: message})
}

// ErrorHandlingMiddleware catches panics and converts them to 500 errors
func ErrorHandlingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("Panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
					)

					RespondWithError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
