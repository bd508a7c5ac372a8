package server

import (
	"net/http"

	"github.com/Dusk-Labs/dim-sub002/pkg/manager"
)

// ListLibraries lists the visible libraries
func (s Server) ListLibraries() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		libraries, err := s.manager.ListLibraries(r.Context())
		respond(w, r, http.StatusOK, libraries, err)
	}
}

// CreateLibrary adds a library and starts its first scan
func (s Server) CreateLibrary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req manager.CreateLibraryRequest
		if err := s.decode(r, &req); err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		library, err := s.manager.CreateLibrary(r.Context(), req)
		respond(w, r, http.StatusCreated, library, err)
	}
}

func (s Server) GetLibrary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		library, err := s.manager.GetLibrary(r.Context(), id)
		respond(w, r, http.StatusOK, library, err)
	}
}

func (s Server) DeleteLibrary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		err = s.manager.DeleteLibrary(r.Context(), id)
		respond(w, r, http.StatusOK, map[string]int64{"id": id}, err)
	}
}

// LibraryMedia lists a library's movies or shows a page at a time
func (s Server) LibraryMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		params, err := ParsePaginationParams(r)
		if err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		media, err := s.manager.LibraryMedia(r.Context(), id, params)
		respond(w, r, http.StatusOK, media, err)
	}
}

func (s Server) Unmatched() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		files, err := s.manager.Unmatched(r.Context(), id)
		respond(w, r, http.StatusOK, files, err)
	}
}

// ScanLibrary starts a rescan in the background
func (s Server) ScanLibrary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		err = s.manager.ScanLibrary(r.Context(), id)
		respond(w, r, http.StatusAccepted, map[string]int64{"id": id}, err)
	}
}

func (s Server) GetMediafile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		file, err := s.manager.GetMediafile(r.Context(), id)
		respond(w, r, http.StatusOK, file, err)
	}
}

// UpdateMediafile corrects the name, year or numbering parsed from a file
func (s Server) UpdateMediafile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		var req manager.UpdateMediafileRequest
		if err := s.decode(r, &req); err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		file, err := s.manager.UpdateMediafile(r.Context(), id, req)
		respond(w, r, http.StatusOK, file, err)
	}
}

// Rematch binds files to the provider media with the given external id
func (s Server) Rematch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req manager.RematchRequest
		if err := s.decode(r, &req); err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		err := s.manager.Rematch(r.Context(), req)
		respond(w, r, http.StatusOK, map[string][]int64{"mediafile_ids": req.MediafileIDs}, err)
	}
}
