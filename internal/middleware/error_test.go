package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestProperty_ErrorsHaveConsistentStructure(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("all error responses use the failure envelope", prop.ForAll(
		func(message string) bool {
			standardCodes := []int{
				http.StatusBadRequest,          // 400
				http.StatusUnauthorized,        // 401
				http.StatusForbidden,           // 403
				http.StatusNotFound,            // 404
				http.StatusConflict,            // 409
				http.StatusTooManyRequests,     // 429
				http.StatusInternalServerError, // 500
				http.StatusServiceUnavailable,  // 503
			}

			statusCode := standardCodes[len(message)%len(standardCodes)]

			if len(message) == 0 {
				message = "test error"
			}

			w := httptest.NewRecorder()
			RespondWithError(w, statusCode, message)

			if w.Code != statusCode {
				return false
			}

			if w.Header().Get("Content-Type") != "application/json" {
				return false
			}

			var response Response
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				return false
			}

			if response.Success {
				return false
			}
			if response.Message != message {
				return false
			}
			if response.Data != nil {
				return false
			}

			return true
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Test that error responses include proper HTTP status codes
func TestProperty_ErrorStatusCodesAreCorrect(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("error responses use correct HTTP status codes", prop.ForAll(
		func(useCode int) bool {
			standardCodes := []int{
				http.StatusBadRequest,
				http.StatusUnauthorized,
				http.StatusForbidden,
				http.StatusNotFound,
				http.StatusConflict,
				http.StatusTooManyRequests,
				http.StatusInternalServerError,
				http.StatusServiceUnavailable,
			}

			if useCode < 0 {
				useCode = -useCode
			}

			statusCode := standardCodes[useCode%len(standardCodes)]

			w := httptest.NewRecorder()
			RespondWithError(w, statusCode, "test error")

			return w.Code == statusCode
		},
		gen.Int(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Test that validation errors are properly formatted
func TestProperty_ValidationErrorsHaveConsistentStructure(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("validation errors have consistent structure", prop.ForAll(
		func(fieldName string, errorMessage string) bool {
			if fieldName == "" {
				fieldName = "testField"
			}
			if errorMessage == "" {
				errorMessage = "test error"
			}

			errors := []ValidationError{
				{
					Field:   fieldName,
					Message: errorMessage,
				},
			}

			w := httptest.NewRecorder()
			RespondWithValidationErrors(w, errors)

			if w.Code != http.StatusBadRequest {
				return false
			}

			var response struct {
				Success bool     `json:"success"`
				Message string   `json:"message"`
				Errors  []string `json:"errors"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				return false
			}

			if response.Success {
				return false
			}
			if response.Message != "validation failed" {
				return false
			}
			if len(response.Errors) != 1 {
				return false
			}
			if response.Errors[0] != fieldName+": "+errorMessage {
				return false
			}

			return true
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Test that success responses wrap the payload in the envelope
func TestProperty_SuccessResponsesWrapData(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("success responses carry data under the envelope", prop.ForAll(
		func(useCode int, data map[string]string) bool {
			standardCodes := []int{
				http.StatusOK,
				http.StatusCreated,
				http.StatusAccepted,
			}

			if useCode < 0 {
				useCode = -useCode
			}

			statusCode := standardCodes[useCode%len(standardCodes)]

			w := httptest.NewRecorder()
			RespondWithJSON(w, statusCode, data)

			if w.Code != statusCode {
				return false
			}

			if w.Header().Get("Content-Type") != "application/json" {
				return false
			}

			var response struct {
				Success bool              `json:"success"`
				Data    map[string]string `json:"data"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				return false
			}

			if !response.Success {
				return false
			}

			for k, v := range data {
				if response.Data[k] != v {
					return false
				}
			}

			return true
		},
		gen.Int(),
		gen.MapOf(gen.AlphaString(), gen.AlphaString()),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRespondWithPage(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithPage(w, http.StatusOK, []string{"a", "b"}, Pagination{
		Total: 42,
		Page:  3,
		Pages: 5,
		Limit: 10,
	})

	var response Response
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if !response.Success {
		t.Error("expected success envelope")
	}
	if response.Pagination == nil {
		t.Fatal("expected pagination in response")
	}
	if response.Pagination.Total != 42 || response.Pagination.Page != 3 ||
		response.Pagination.Pages != 5 || response.Pagination.Limit != 10 {
		t.Errorf("unexpected pagination: %+v", response.Pagination)
	}
}

func TestRespondWithMessage(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithMessage(w, http.StatusOK, "item removed from cart")

	var response Response
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if !response.Success {
		t.Error("expected success envelope")
	}
	if response.Message != "item removed from cart" {
		t.Errorf("unexpected message: %q", response.Message)
	}
}
