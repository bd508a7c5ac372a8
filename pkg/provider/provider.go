package provider

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrTimeout          = errors.New("provider request timed out")
	ErrReachedMaxTries  = errors.New("provider request reached max tries")
	ErrNoResults        = errors.New("no results found")
	ErrNoSeasonsFound   = errors.New("no seasons found")
	ErrNoEpisodesFound  = errors.New("no episodes found")
	ErrNoGenreFound     = errors.New("no genre found")
	ErrOther            = errors.New("provider error")
	ErrInvalidMediaType = errors.New("provider does not serve this media type")
)

// DeserializationError is returned when a response body could not be decoded
type DeserializationError struct {
	Body string
	Err  error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("failed to deserialize provider response: %v", e.Err)
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}

// RemoteAPIError is returned when the remote api answers with an error status
type RemoteAPIError struct {
	Code    int
	Message string
}

func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("remote api error %d: %s", e.Code, e.Message)
}

// IsNotFound reports whether err means the provider has nothing for the request
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNoResults) || errors.Is(err, ErrNoSeasonsFound) ||
		errors.Is(err, ErrNoEpisodesFound) || errors.Is(err, ErrNoGenreFound) {
		return true
	}

	var remote *RemoteAPIError
	return errors.As(err, &remote) && remote.Code == 404
}

type ExternalMedia struct {
	ExternalID  string     `json:"external_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
	Posters     []string   `json:"posters"`
	Backdrops   []string   `json:"backdrops"`
	Genres      []string   `json:"genres"`
	// Rating is normalized to [0, 1]
	Rating *float64 `json:"rating,omitempty"`
	// Duration is the runtime in seconds
	Duration *int64 `json:"duration,omitempty"`
}

// Year returns the release year, if the release date is known
func (m ExternalMedia) Year() *int64 {
	if m.ReleaseDate == nil {
		return nil
	}
	y := int64(m.ReleaseDate.Year())
	return &y
}

type ExternalActor struct {
	ExternalID string  `json:"external_id"`
	Name       string  `json:"name"`
	Profile    *string `json:"profile_path,omitempty"`
	Character  string  `json:"character"`
}

type ExternalSeason struct {
	ExternalID   string     `json:"external_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Poster       *string    `json:"poster,omitempty"`
	SeasonNumber int64      `json:"season_number"`
	ReleaseDate  *time.Time `json:"release_date,omitempty"`
}

type ExternalEpisode struct {
	ExternalID  string     `json:"external_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Episode     int64      `json:"episode"`
	Still       *string    `json:"still,omitempty"`
	Duration    *int64     `json:"duration,omitempty"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
}

// Provider looks up media in an external metadata source
type Provider interface {
	// Search returns matches ordered by the backend's match score
	Search(ctx context.Context, title string, year *int64) ([]ExternalMedia, error)
	SearchByID(ctx context.Context, externalID string) (ExternalMedia, error)
	// Cast returns actors in order of importance
	Cast(ctx context.Context, externalID string) ([]ExternalActor, error)
}

// TvProvider additionally resolves seasons and episodes
type TvProvider interface {
	Provider
	// SeasonsForID returns seasons ordered by season number
	SeasonsForID(ctx context.Context, externalID string) ([]ExternalSeason, error)
	// EpisodesForSeason returns episodes ordered by episode number
	EpisodesForSeason(ctx context.Context, externalID string, season int64) ([]ExternalEpisode, error)
}
