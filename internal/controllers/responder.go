package controllers

import (
	"errors"
	"io"
	"net/http"
	"seatcheck/internal/apperrors"
	"seatcheck/internal/providers"

	json "github.com/goccy/go-json"
)

const maxRequestBodySize = 1 << 20 // 1 MB

var errBadRequest = errors.New("malformed request body")

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

// Responder writes JSON bodies and the error envelope shared by all handlers.
type Responder struct {
	logger providers.Logger
}

func NewResponder(logger providers.Logger) *Responder {
	return &Responder{logger: logger}
}

func (rs *Responder) JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		rs.logger.Errorf(providers.GetLogTypeByRequestType(r.Method), "Error encoding response for %s: %v", r.URL.Path, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errBadRequest) {
		rs.JSON(w, r, http.StatusBadRequest, errorBody{Error: errorDetail{Code: "BAD_REQUEST", Message: err.Error()}})
		return
	}

	appErr := apperrors.Classify(err)
	status := appErr.Kind.HTTPStatus()
	message := appErr.Message
	if status >= http.StatusInternalServerError {
		rs.logger.Errorf(providers.GetLogTypeByRequestType(r.Method), "%s %s: %v", r.Method, r.URL.Path, err)
		if appErr.Kind == apperrors.KindInternal {
			message = "internal error"
		}
	}
	rs.JSON(w, r, status, errorBody{Error: errorDetail{Code: appErr.Kind.Code(), Message: message}})
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return apperrors.InvalidArgument("field %s must be a %s", typeErr.Field, typeErr.Type)
	}
	return errBadRequest
}

func userID(r *http.Request) (string, error) {
	id, ok := providers.UserIDFromContext(r.Context())
	if !ok {
		return "", apperrors.Unauthenticated("missing caller identity")
	}
	return id, nil
}
