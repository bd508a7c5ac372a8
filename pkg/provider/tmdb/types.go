package tmdb

import (
	"encoding/json"
	"strconv"
	"time"
)

type searchResponse struct {
	Page    int            `json:"page"`
	Results []searchResult `json:"results"`
}

// searchResult covers both movie and tv results. Movies use title and release_date,
// shows use name and first_air_date.
type searchResult struct {
	ID           int64    `json:"id"`
	Title        *string  `json:"title"`
	Name         *string  `json:"name"`
	ReleaseDate  *string  `json:"release_date"`
	FirstAirDate *string  `json:"first_air_date"`
	Overview     *string  `json:"overview"`
	VoteAverage  *float64 `json:"vote_average"`
	PosterPath   *string  `json:"poster_path"`
	BackdropPath *string  `json:"backdrop_path"`
	GenreIDs     []int64  `json:"genre_ids"`
}

type genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type genreListResponse struct {
	Genres []genre `json:"genres"`
}

type detailsResponse struct {
	searchResult
	Genres         []genre         `json:"genres"`
	Runtime        *int64          `json:"runtime"`
	EpisodeRunTime []int64         `json:"episode_run_time"`
	Seasons        []seasonSummary `json:"seasons"`
}

type seasonSummary struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   *string `json:"poster_path"`
	SeasonNumber int64   `json:"season_number"`
	AirDate      *string `json:"air_date"`
}

type seasonResponse struct {
	ID       int64     `json:"id"`
	Episodes []episode `json:"episodes"`
}

type episode struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Overview      string  `json:"overview"`
	EpisodeNumber int64   `json:"episode_number"`
	StillPath     *string `json:"still_path"`
	Runtime       *int64  `json:"runtime"`
	AirDate       *string `json:"air_date"`
}

type creditsResponse struct {
	ID   int64       `json:"id"`
	Cast []castEntry `json:"cast"`
}

type castEntry struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Character   string  `json:"character"`
	ProfilePath *string `json:"profile_path"`
	Order       int     `json:"order"`
}

type errorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

func (r searchResult) title() string {
	if r.Title != nil {
		return *r.Title
	}
	if r.Name != nil {
		return *r.Name
	}
	return ""
}

func (r searchResult) releaseDate() *time.Time {
	date := r.ReleaseDate
	if date == nil || *date == "" {
		date = r.FirstAirDate
	}
	return parseDate(date)
}

// parseDate reads a yyyy-mm-dd date as UTC. Empty or malformed dates are unknown.
func parseDate(date *string) *time.Time {
	if date == nil || *date == "" {
		return nil
	}
	t, err := time.ParseInLocation(time.DateOnly, *date, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

func decode[T any](body string) (T, error) {
	var v T
	err := json.Unmarshal([]byte(body), &v)
	return v, err
}
