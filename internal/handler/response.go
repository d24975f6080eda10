package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/pclub/portal/api/internal/model"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

// DataResponse wraps a successful response
type DataResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
}

// MessageResponse is the data of operations that only report an outcome
type MessageResponse struct {
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteData writes a successful data response
func WriteData(w http.ResponseWriter, status int, data interface{}) {
	WriteJSON(w, status, DataResponse{Status: "success", Data: data})
}

// WriteMessage writes a successful response whose data is a message
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteData(w, status, MessageResponse{Message: message})
}

// WriteError writes an error envelope
func WriteError(w http.ResponseWriter, err *model.APIError) {
	err.WriteJSON(w)
}

// WriteServiceError maps err and writes the resulting envelope
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	WriteError(w, MapServiceErrorWithContext(r, err))
}

// DecodeJSON decodes a JSON request body into the given struct
func DecodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

// validator is implemented by request DTOs
type validator interface {
	Validate() []model.FieldError
}

// decodeAndValidate decodes the body into req and checks it. On failure the
// error envelope has already been written and false is returned.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req validator) bool {
	if err := DecodeJSON(r, req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body: "+err.Error()))
		return false
	}
	if errs := req.Validate(); len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return false
	}
	return true
}

// WriteNoContent writes a 204 No Content response
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
