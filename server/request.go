package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Dusk-Labs/dim-sub002/pkg/auth"
	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"github.com/Dusk-Labs/dim-sub002/pkg/manager"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// pathID reads the numeric {id} route variable
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id", manager.ErrInvalidRequest)
	}
	return id, nil
}

// optionalInt parses an optional integer query parameter
func optionalInt(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s parameter", manager.ErrInvalidRequest, name)
	}
	return &v, nil
}

func optionalString(r *http.Request, name string) *string {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	return &raw
}

// readBody returns the raw request body
func readBody(r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid request body", manager.ErrInvalidRequest)
	}
	return b, nil
}

// decode unmarshals and validates a json request body into v
func (s Server) decode(r *http.Request, v any) error {
	b, err := readBody(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		logger.FromCtx(r.Context()).Debugw("invalid request body", zap.ByteString("body", b))
		return fmt.Errorf("%w: invalid request body", manager.ErrInvalidRequest)
	}
	if err := s.validate.StructCtx(r.Context(), v); err != nil {
		return fmt.Errorf("%w: %w", manager.ErrInvalidRequest, err)
	}
	return nil
}

// claims returns the caller set by AuthMiddleware
func claims(r *http.Request) *auth.Claims {
	c, _ := auth.FromCtx(r.Context())
	return c
}

func userID(r *http.Request) int64 {
	if c := claims(r); c != nil {
		return c.UserID
	}
	return 0
}

// respond writes body as json or the error
func respond(w http.ResponseWriter, r *http.Request, status int, body any, err error) {
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}
	if err := writeResponse(w, status, body); err != nil {
		logger.FromCtx(r.Context()).Error("failed to write response", zap.Error(err))
	}
}
