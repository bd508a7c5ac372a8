package server

import (
	"net/http"
	"strings"

	"github.com/Dusk-Labs/dim-sub002/pkg/manager"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
)

func (s Server) GetMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		media, err := s.manager.GetMedia(r.Context(), userID(r), id)
		respond(w, r, http.StatusOK, media, err)
	}
}

func (s Server) UpdateMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		var req manager.UpdateMediaRequest
		if err := s.decode(r, &req); err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		media, err := s.manager.UpdateMedia(r.Context(), userID(r), id, req)
		respond(w, r, http.StatusOK, media, err)
	}
}

func (s Server) DeleteMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		err = s.manager.DeleteMedia(r.Context(), id)
		respond(w, r, http.StatusOK, map[string]int64{"id": id}, err)
	}
}

// SetProgress stores the caller's playback offset
func (s Server) SetProgress() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		var req manager.ProgressRequest
		if err := s.decode(r, &req); err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		err = s.manager.SetProgress(r.Context(), userID(r), id, req.Offset)
		respond(w, r, http.StatusOK, req, err)
	}
}

// Search finds media by name with optional year, library_id, genre and media_type filters
func (s Server) Search() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := manager.SearchRequest{
			Query: strings.TrimSpace(r.URL.Query().Get("query")),
			Genre: optionalString(r, "genre"),
		}
		var err error
		if req.Year, err = optionalInt(r, "year"); err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		if req.LibraryID, err = optionalInt(r, "library_id"); err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		if raw := optionalString(r, "media_type"); raw != nil {
			kind, ok := storage.ParseMediaType(*raw)
			if !ok {
				writeErrorResponse(w, r, manager.ErrInvalidRequest)
				return
			}
			req.MediaType = &kind
		}

		cards, err := s.manager.Search(r.Context(), req)
		respond(w, r, http.StatusOK, cards, err)
	}
}

func (s Server) Dashboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dashboard, err := s.manager.Dashboard(r.Context())
		respond(w, r, http.StatusOK, dashboard, err)
	}
}

func (s Server) Banner() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		banner, err := s.manager.Banner(r.Context(), userID(r))
		respond(w, r, http.StatusOK, banner, err)
	}
}
