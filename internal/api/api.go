// Package api carries the small request/response conventions shared by the
// feature modules: the response envelope, JSON decoding with validation,
// and error rendering.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Response is the envelope every endpoint answers with.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// JSON writes v as the data payload of a success envelope.
func JSON(w http.ResponseWriter, code int, v any) {
	write(w, code, Response{Status: "success", Data: v})
}

// Message writes a success envelope with no data.
func Message(w http.ResponseWriter, code int, msg string) {
	write(w, code, Response{Status: "success", Message: msg})
}

// Error writes an error envelope.
func Error(w http.ResponseWriter, code int, msg string) {
	write(w, code, Response{Status: "error", Message: msg})
}

func write(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Decode parses the request body into dst and validates it against its
// struct tags. Callers should answer 400 with the returned message.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("invalid field %q: failed %q validation", f.Field(), f.Tag())
		}
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}
