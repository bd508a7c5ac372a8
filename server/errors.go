package server

import (
	"errors"
	"net/http"

	"github.com/Dusk-Labs/dim-sub002/pkg/auth"
	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"github.com/Dusk-Labs/dim-sub002/pkg/manager"
	"github.com/Dusk-Labs/dim-sub002/pkg/matcher"
	"github.com/Dusk-Labs/dim-sub002/pkg/provider"
	"github.com/Dusk-Labs/dim-sub002/pkg/scanner"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type errorKind struct {
	err    error
	status int
	kind   string
}

// first match wins
var errorKinds = []errorKind{
	{scanner.ErrLibraryNotFound, http.StatusNotFound, "LibraryNotFound"},
	{storage.ErrNotFound, http.StatusNotFound, "NotFound"},
	{auth.ErrMissing, http.StatusUnauthorized, "MissingToken"},
	{auth.ErrInvalid, http.StatusUnauthorized, "InvalidToken"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "InvalidCredentials"},
	{manager.ErrPermission, http.StatusUnauthorized, "Unauthorized"},
	{auth.ErrUsernameNotAvailable, http.StatusBadRequest, "UsernameNotAvailable"},
	{manager.ErrInvalidRequest, http.StatusBadRequest, "InvalidRequest"},
	{matcher.ErrMediaTypeMismatch, http.StatusNotAcceptable, "MediaTypeMismatch"},
	{matcher.ErrUnsupportedMediaType, http.StatusNotAcceptable, "UnsupportedMediaType"},
	{provider.ErrInvalidMediaType, http.StatusNotAcceptable, "UnsupportedMediaType"},
	{matcher.ErrNoEpisodeNumber, http.StatusNotAcceptable, "UnsupportedFile"},
	{scanner.ErrScanInProgress, http.StatusConflict, "ScanInProgress"},
}

// classify maps an error to its status code and kind
func classify(err error) (int, string) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.status, k.kind
		}
	}
	if provider.IsNotFound(err) {
		return http.StatusNotFound, "NoResults"
	}
	if errors.Is(err, storage.ErrDatabase) || errors.Is(err, storage.ErrConstraint) {
		return http.StatusInternalServerError, "DatabaseError"
	}
	return http.StatusInternalServerError, "InternalServerError"
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromCtx(r.Context())
	status, kind := classify(err)
	if status >= http.StatusInternalServerError {
		log.Errorw("request failed", "kind", kind, zap.Error(err))
	} else {
		log.Debugw("request rejected", "status", status, "kind", kind, zap.Error(err))
	}

	if err := writeResponse(w, status, ErrorResponse{Error: kind, Message: err.Error()}); err != nil {
		log.Error("failed to write response", zap.Error(err))
	}
}
