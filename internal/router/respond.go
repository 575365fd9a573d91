package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/patric-chuzhbe/twitterapi/internal/db/storage"
	"github.com/patric-chuzhbe/twitterapi/internal/logger"
	"github.com/patric-chuzhbe/twitterapi/internal/service"
	"github.com/patric-chuzhbe/twitterapi/internal/validation"
)

var errMalformedBody = errors.New("malformed request body")

type errorResponse struct {
	Error  string                  `json:"error"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

func decodeJSON(request *http.Request, dst interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %s", errMalformedBody, err.Error())
	}

	return nil
}

func writeJSON(response http.ResponseWriter, status int, body interface{}) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(status)

	if err := json.NewEncoder(response).Encode(body); err != nil {
		logger.Log.Errorln("in internal/router/respond.go/writeJSON(): error while `json.NewEncoder().Encode()` calling:", err)
	}
}

func (rtr *Router) writeError(response http.ResponseWriter, request *http.Request, err error) {
	var validationErr *validation.ValidationError

	switch {
	case errors.As(err, &validationErr):
		writeJSON(response, http.StatusUnprocessableEntity, errorResponse{
			Error:  "validation failed",
			Fields: validationErr.Fields,
		})
	case errors.Is(err, errMalformedBody):
		writeJSON(response, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrAuthorNotFound):
		writeJSON(response, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(response, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, storage.ErrConflict):
		writeJSON(response, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		logger.Log.Errorw(
			"request failed",
			"request_id", middleware.GetReqID(request.Context()),
			"uri", request.RequestURI,
			"error", err,
		)
		writeJSON(response, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
