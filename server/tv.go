package server

import (
	"net/http"

	"github.com/Dusk-Labs/dim-sub002/pkg/manager"
)

func (s Server) ListSeasons() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		seasons, err := s.manager.ListSeasons(r.Context(), id)
		respond(w, r, http.StatusOK, seasons, err)
	}
}

func (s Server) GetSeason() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		season, err := s.manager.GetSeason(r.Context(), id)
		respond(w, r, http.StatusOK, season, err)
	}
}

func (s Server) UpdateSeason() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		var req manager.UpdateSeasonRequest
		if err := s.decode(r, &req); err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		season, err := s.manager.UpdateSeason(r.Context(), id, req)
		respond(w, r, http.StatusOK, season, err)
	}
}

func (s Server) DeleteSeason() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		err = s.manager.DeleteSeason(r.Context(), id)
		respond(w, r, http.StatusOK, map[string]int64{"id": id}, err)
	}
}

func (s Server) SeasonEpisodes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		episodes, err := s.manager.SeasonEpisodes(r.Context(), userID(r), id)
		respond(w, r, http.StatusOK, episodes, err)
	}
}

func (s Server) GetEpisode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		episode, err := s.manager.GetEpisode(r.Context(), userID(r), id)
		respond(w, r, http.StatusOK, episode, err)
	}
}

func (s Server) UpdateEpisode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		var req manager.UpdateEpisodeRequest
		if err := s.decode(r, &req); err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		episode, err := s.manager.UpdateEpisode(r.Context(), userID(r), id, req)
		respond(w, r, http.StatusOK, episode, err)
	}
}

func (s Server) DeleteEpisode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeErrorResponse(w, r, err)
			return
		}
		err = s.manager.DeleteEpisode(r.Context(), id)
		respond(w, r, http.StatusOK, map[string]int64{"id": id}, err)
	}
}
