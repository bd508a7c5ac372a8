package manager

import (
	"github.com/Dusk-Labs/dim-sub002/pkg/pagination"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"github.com/oapi-codegen/nullable"
)

type Library struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	MediaType string   `json:"media_type"`
	Locations []string `json:"locations"`
}

type CreateLibraryRequest struct {
	Name      string   `json:"name" validate:"required"`
	MediaType string   `json:"media_type" validate:"required,oneof=movie tv"`
	Locations []string `json:"locations" validate:"required,min=1,dive,required"`
}

// Card is the summary of a movie or show shown in grids
type Card struct {
	ID         int64   `json:"id"`
	LibraryID  int64   `json:"library_id"`
	Name       string  `json:"name"`
	Year       *int64  `json:"year,omitempty"`
	PosterPath *string `json:"poster_path,omitempty"`
	MediaType  string  `json:"media_type"`
}

type LibraryMedia struct {
	Media []Card          `json:"media"`
	Meta  pagination.Meta `json:"meta"`
}

type Media struct {
	Card
	Description  *string     `json:"description,omitempty"`
	Rating       *float64    `json:"rating,omitempty"`
	Added        *int64      `json:"added,omitempty"`
	BackdropPath *string     `json:"backdrop_path,omitempty"`
	Genres       []string    `json:"genres"`
	Duration     *int64      `json:"duration,omitempty"`
	Progress     int64       `json:"progress"`
	Files        []Mediafile `json:"files"`
}

// UpdateMediaRequest changes the fields that are sent. Nulls are rejected.
type UpdateMediaRequest struct {
	Name        nullable.Nullable[string]  `json:"name,omitempty"`
	Description nullable.Nullable[string]  `json:"description,omitempty"`
	Year        nullable.Nullable[int64]   `json:"year,omitempty"`
	Rating      nullable.Nullable[float64] `json:"rating,omitempty"`
}

type ProgressRequest struct {
	Offset int64 `json:"offset" validate:"gte=0"`
}

type Mediafile struct {
	ID                 int64   `json:"id"`
	MediaID            *int64  `json:"media_id,omitempty"`
	LibraryID          int64   `json:"library_id"`
	TargetFile         string  `json:"target_file"`
	RawName            string  `json:"raw_name"`
	RawYear            *int64  `json:"raw_year,omitempty"`
	Quality            *string `json:"quality,omitempty"`
	Codec              *string `json:"codec,omitempty"`
	Container          *string `json:"container,omitempty"`
	Audio              *string `json:"audio,omitempty"`
	OriginalResolution *string `json:"original_resolution,omitempty"`
	Duration           *int64  `json:"duration,omitempty"`
	Bitrate            *int64  `json:"bitrate,omitempty"`
	Season             *int64  `json:"season,omitempty"`
	Episode            *int64  `json:"episode,omitempty"`
	Corrupt            bool    `json:"corrupt"`
	Size               *uint64 `json:"size,omitempty"`
	SizeHuman          string  `json:"size_human,omitempty"`
}

// UpdateMediafileRequest corrects what the parser guessed
type UpdateMediafileRequest struct {
	RawName nullable.Nullable[string] `json:"raw_name,omitempty"`
	RawYear nullable.Nullable[int64]  `json:"raw_year,omitempty"`
	Season  nullable.Nullable[int64]  `json:"season,omitempty"`
	Episode nullable.Nullable[int64]  `json:"episode,omitempty"`
}

type RematchRequest struct {
	MediafileIDs []int64 `json:"mediafile_ids" validate:"required,min=1"`
	ExternalID   string  `json:"tmdb_id" validate:"required"`
	MediaType    string  `json:"media_type" validate:"required,oneof=movie tv"`
}

type SearchRequest struct {
	Query     string
	Year      *int64
	LibraryID *int64
	Genre     *string
	MediaType *storage.MediaType
}

// Dashboard groups cards by section name
type Dashboard map[string][]Card

type Banner struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Year         *int64   `json:"year,omitempty"`
	Synopsis     *string  `json:"synopsis,omitempty"`
	BackdropPath *string  `json:"backdrop_path,omitempty"`
	Genres       []string `json:"genres"`
	Duration     *int64   `json:"duration,omitempty"`
	Progress     int64    `json:"progress"`
}

type Season struct {
	ID           int64   `json:"id"`
	SeasonNumber int64   `json:"season_number"`
	TvShowID     int64   `json:"tv_show_id"`
	Added        *int64  `json:"added,omitempty"`
	PosterPath   *string `json:"poster_path,omitempty"`
}

type UpdateSeasonRequest struct {
	SeasonNumber nullable.Nullable[int64] `json:"season_number,omitempty"`
}

type Episode struct {
	ID            int64       `json:"id"`
	Episode       int64       `json:"episode"`
	SeasonID      int64       `json:"season_id"`
	SeasonNumber  int64       `json:"season_number"`
	TvShowID      int64       `json:"tv_show_id"`
	Name          string      `json:"name"`
	Description   *string     `json:"description,omitempty"`
	ThumbnailPath *string     `json:"thumbnail_path,omitempty"`
	Duration      *int64      `json:"duration,omitempty"`
	Progress      int64       `json:"progress"`
	Files         []Mediafile `json:"files"`
}

type UpdateEpisodeRequest struct {
	Episode nullable.Nullable[int64]  `json:"episode,omitempty"`
	Name    nullable.Nullable[string] `json:"name,omitempty"`
}

type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Credentials
	InviteToken string `json:"invite_token"`
}

type Token struct {
	Token string `json:"token"`
}

type Invite struct {
	Token     string `json:"token"`
	DateAdded int64  `json:"date_added"`
}
