package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/pennyplan/internal/common"
	"github.com/dmitrijs2005/pennyplan/internal/logging"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageResponse{Message: msg})
}

// writeServiceError maps service and validation errors onto HTTP responses.
// Anything unrecognised becomes a 500 with fallback as message; details only
// go to the log.
func writeServiceError(ctx context.Context, w http.ResponseWriter, log logging.Logger, err error, fallback string) {
	var ve validationError

	switch {
	case errors.As(err, &ve):
		writeMessage(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, common.ErrorValidation):
		writeMessage(w, http.StatusBadRequest, "Invalid request")
	case errors.Is(err, common.ErrAccountExists):
		writeMessage(w, http.StatusBadRequest, "User already exists")
	case errors.Is(err, common.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, common.ErrInvalidExternalToken):
		writeMessage(w, http.StatusUnauthorized, "Invalid Google token")
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
	default:
		log.Error(ctx, fallback, "error", err)
		writeMessage(w, http.StatusInternalServerError, fallback)
	}
}
