package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Dusk-Labs/dim-sub002/pkg/hub"
	"github.com/Dusk-Labs/dim-sub002/pkg/manager"
	"github.com/Dusk-Labs/dim-sub002/pkg/matcher"
	"github.com/Dusk-Labs/dim-sub002/pkg/metrics"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

const shutdownTimeout = 3 * time.Second

// Server exposes the media manager over http
type Server struct {
	baseLogger  *zap.SugaredLogger
	manager     *manager.MediaManager
	hub         *hub.Hub
	hubOpts     []hub.HandlerOption
	metadataDir string
	distDir     string
	validate    *validator.Validate
}

type Option func(*Server)

// WithHub serves the event fabric at /ws
func WithHub(h *hub.Hub, opts ...hub.HandlerOption) Option {
	return func(s *Server) {
		s.hub = h
		s.hubOpts = opts
	}
}

// WithMetadataDir serves fetched posters and backdrops from dir
func WithMetadataDir(dir string) Option {
	return func(s *Server) {
		s.metadataDir = dir
	}
}

// WithDistDir serves a built web client from dir for every unmatched path
func WithDistDir(dir string) Option {
	return func(s *Server) {
		s.distDir = dir
	}
}

// New creates a new media server
func New(logger *zap.SugaredLogger, m *manager.MediaManager, opts ...Option) Server {
	s := Server{
		baseLogger: logger,
		manager:    m,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func writeResponse(w http.ResponseWriter, status int, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	w.Header().Set("content-type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}

	_, err = w.Write(b)
	return err
}

// Router registers every route
func (s Server) Router() http.Handler {
	rtr := mux.NewRouter()
	rtr.Use(s.LogMiddleware(), s.MetricsMiddleware())
	rtr.HandleFunc("/healthz", s.Healthz()).Methods(http.MethodGet)
	rtr.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	if s.hub != nil {
		rtr.Handle("/ws", s.hub.Handler(s.manager.Authenticator(), s.hubOpts...))
	}
	if s.metadataDir != "" {
		prefix := "/" + matcher.AssetDir + "/"
		rtr.PathPrefix(prefix).Handler(http.StripPrefix(prefix, s.Images()))
	}

	v1 := rtr.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/auth/login", s.Login()).Methods(http.MethodPost)
	v1.HandleFunc("/auth/register", s.Register()).Methods(http.MethodPost)

	api := v1.PathPrefix("").Subrouter()
	api.Use(s.AuthMiddleware())

	api.HandleFunc("/auth/invites", s.ListInvites()).Methods(http.MethodGet)
	api.HandleFunc("/auth/invites", s.CreateInvite()).Methods(http.MethodPost)

	api.HandleFunc("/library", s.ListLibraries()).Methods(http.MethodGet)
	api.HandleFunc("/library", s.CreateLibrary()).Methods(http.MethodPost)
	api.HandleFunc("/library/{id:[0-9]+}", s.GetLibrary()).Methods(http.MethodGet)
	api.HandleFunc("/library/{id:[0-9]+}", s.DeleteLibrary()).Methods(http.MethodDelete)
	api.HandleFunc("/library/{id:[0-9]+}/media", s.LibraryMedia()).Methods(http.MethodGet)
	api.HandleFunc("/library/{id:[0-9]+}/unmatched", s.Unmatched()).Methods(http.MethodGet)
	api.HandleFunc("/library/{id:[0-9]+}/scan", s.ScanLibrary()).Methods(http.MethodPost)

	api.HandleFunc("/mediafile/match", s.Rematch()).Methods(http.MethodPatch)
	api.HandleFunc("/mediafile/{id:[0-9]+}", s.GetMediafile()).Methods(http.MethodGet)
	api.HandleFunc("/mediafile/{id:[0-9]+}", s.UpdateMediafile()).Methods(http.MethodPatch)

	api.HandleFunc("/media/{id:[0-9]+}", s.GetMedia()).Methods(http.MethodGet)
	api.HandleFunc("/media/{id:[0-9]+}", s.UpdateMedia()).Methods(http.MethodPatch)
	api.HandleFunc("/media/{id:[0-9]+}", s.DeleteMedia()).Methods(http.MethodDelete)
	api.HandleFunc("/media/{id:[0-9]+}/progress", s.SetProgress()).Methods(http.MethodPost)

	api.HandleFunc("/search", s.Search()).Methods(http.MethodGet)
	api.HandleFunc("/dashboard", s.Dashboard()).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/banner", s.Banner()).Methods(http.MethodGet)

	api.HandleFunc("/tv/{id:[0-9]+}/season", s.ListSeasons()).Methods(http.MethodGet)
	api.HandleFunc("/season/{id:[0-9]+}", s.GetSeason()).Methods(http.MethodGet)
	api.HandleFunc("/season/{id:[0-9]+}", s.UpdateSeason()).Methods(http.MethodPatch)
	api.HandleFunc("/season/{id:[0-9]+}", s.DeleteSeason()).Methods(http.MethodDelete)
	api.HandleFunc("/season/{id:[0-9]+}/episodes", s.SeasonEpisodes()).Methods(http.MethodGet)
	api.HandleFunc("/episode/{id:[0-9]+}", s.GetEpisode()).Methods(http.MethodGet)
	api.HandleFunc("/episode/{id:[0-9]+}", s.UpdateEpisode()).Methods(http.MethodPatch)
	api.HandleFunc("/episode/{id:[0-9]+}", s.DeleteEpisode()).Methods(http.MethodDelete)

	api.HandleFunc("/user/settings", s.UserSettings()).Methods(http.MethodGet)
	api.HandleFunc("/user/settings", s.SetUserSettings()).Methods(http.MethodPost)
	api.HandleFunc("/host/settings", s.HostSettings()).Methods(http.MethodGet)
	api.HandleFunc("/host/settings", s.SetHostSettings()).Methods(http.MethodPost)

	if s.distDir != "" {
		rtr.PathPrefix("/").Handler(http.FileServer(http.Dir(s.distDir)))
	}

	return handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)(rtr)
}

func (s Server) assetDir() string {
	return filepath.Join(s.metadataDir, matcher.AssetDir)
}

// Serve starts the http server and blocks until ctx is done
func (s Server) Serve(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		s.baseLogger.Infow("serving...", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// Healthz is an endpoint that can be used for probes
func (s Server) Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
