package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/Dusk-Labs/dim-sub002/pkg/pagination"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/model"
	"github.com/go-jet/jet/v2/sqlite"
)

var (
	ErrNotFound = errors.New("not found in storage")
	ErrDatabase = errors.New("database error")

	// ErrConstraint marks an integrity violation. It is always joined with ErrDatabase.
	ErrConstraint = errors.New("constraint violation")
)

type MediaType string

const (
	MediaTypeMovie   MediaType = "movie"
	MediaTypeTv      MediaType = "tv"
	MediaTypeEpisode MediaType = "episode"
)

// Valid reports whether m is one of the known media kinds
func (m MediaType) Valid() bool {
	switch m {
	case MediaTypeMovie, MediaTypeTv, MediaTypeEpisode:
		return true
	}
	return false
}

// ParseMediaType parses a media kind case-insensitively
func ParseMediaType(s string) (MediaType, bool) {
	m := MediaType(strings.ToLower(strings.TrimSpace(s)))
	return m, m.Valid()
}

// Storage is the catalog. Writes are only possible through WithWriteTx.
type Storage interface {
	// ReadTx opens a snapshot on the reader pool. The caller must call Done.
	ReadTx(ctx context.Context) (Tx, error)
	// WithWriteTx runs fn while holding the writer. fn's error rolls the transaction back.
	WithWriteTx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

type Tx interface {
	LibraryStorage
	MediaStorage
	SeasonStorage
	EpisodeStorage
	MediafileStorage
	AssetStorage
	GenreStorage
	UserStorage
	ProgressStorage
	SettingsStorage

	// Done releases a read transaction. It is safe to call more than once.
	Done() error
}

type Library struct {
	model.Library
	Locations []string `json:"locations"`
}

type InsertableLibrary struct {
	Name      string
	Locations []string
	MediaType MediaType
}

type LibraryStorage interface {
	CreateLibrary(ctx context.Context, library InsertableLibrary) (int64, error)
	// GetLibrary returns the library even when it is hidden
	GetLibrary(ctx context.Context, id int64) (*Library, error)
	// ListLibraries returns only libraries that are not hidden
	ListLibraries(ctx context.Context) ([]*Library, error)
	HideLibrary(ctx context.Context, id int64) error
	DeleteLibrary(ctx context.Context, id int64) error
}

// MediaUpdate holds the optional fields of a media update. Nil fields are left unchanged.
type MediaUpdate struct {
	Name        *string
	Description *string
	Rating      *float64
	Year        *int64
	Added       *int64
	Poster      *int64
	Backdrop    *int64
}

func (u MediaUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Rating == nil && u.Year == nil &&
		u.Added == nil && u.Poster == nil && u.Backdrop == nil
}

type SearchQuery struct {
	Query     string
	Year      *int64
	LibraryID *int64
	Genre     *string
	MediaType *MediaType
	Limit     int
}

type MediaStorage interface {
	CreateMedia(ctx context.Context, media model.Media) (int64, error)
	GetMedia(ctx context.Context, id int64) (*model.Media, error)
	FindMedia(ctx context.Context, where sqlite.BoolExpression) (*model.Media, error)
	GetMediaByName(ctx context.Context, libraryID int64, name string, mediaType MediaType) (*model.Media, error)
	ListLibraryMedia(ctx context.Context, libraryID int64, params pagination.Params) ([]*model.Media, int, error)
	ListMedia(ctx context.Context, where sqlite.BoolExpression, orderBy []sqlite.OrderByClause, limit int64) ([]*model.Media, error)
	SearchMedia(ctx context.Context, query SearchQuery) ([]*model.Media, error)
	UpdateMedia(ctx context.Context, id int64, update MediaUpdate) error
	DeleteMedia(ctx context.Context, id int64) error
	// ListOrphanMedia returns media that no longer render any mediafile
	ListOrphanMedia(ctx context.Context) ([]*model.Media, error)
}

type SeasonUpdate struct {
	SeasonNumber *int64
	Poster       *int64
}

type SeasonStorage interface {
	CreateSeason(ctx context.Context, season model.Season) (int64, error)
	GetSeason(ctx context.Context, id int64) (*model.Season, error)
	GetSeasonByNumber(ctx context.Context, tvShowID int64, seasonNumber int64) (*model.Season, error)
	ListSeasons(ctx context.Context, tvShowID int64) ([]*model.Season, error)
	UpdateSeason(ctx context.Context, id int64, update SeasonUpdate) error
	DeleteSeason(ctx context.Context, id int64) error
	DeleteEmptySeasons(ctx context.Context) (int64, error)
	DeleteEmptySeasonsOfShow(ctx context.Context, showID int64) (int64, error)
}

// Episode is an episode row joined with the media row that carries its metadata
type Episode struct {
	Media        model.Media
	Episode      model.Episode
	SeasonNumber int64 `alias:"season.season_number"`
	TvShowID     int64 `alias:"season.tv_show_id"`
}

type EpisodeStorage interface {
	// CreateEpisode links an existing episode media row to a season
	CreateEpisode(ctx context.Context, episode model.Episode) error
	GetEpisode(ctx context.Context, id int64) (*Episode, error)
	GetEpisodeByNumber(ctx context.Context, seasonID int64, episode int64) (*Episode, error)
	ListEpisodes(ctx context.Context, seasonID int64) ([]*Episode, error)
	UpdateEpisodeNumber(ctx context.Context, id int64, episode int64) error
	DeleteEpisode(ctx context.Context, id int64) error
}

// MediafileUpdate holds the optional fields of a mediafile update. Nil fields are left unchanged.
// ClearMedia detaches the file from its media and takes precedence over MediaID.
type MediafileUpdate struct {
	MediaID    *int64
	ClearMedia bool
	TargetFile *string
	RawName    *string
	RawYear    *int64
	Season     *int64
	Episode    *int64
	Corrupt    *bool
}

type MediafileStorage interface {
	CreateMediafile(ctx context.Context, mediafile model.Mediafile) (int64, error)
	GetMediafile(ctx context.Context, id int64) (*model.Mediafile, error)
	GetMediafileByPath(ctx context.Context, path string) (*model.Mediafile, error)
	ListMediafiles(ctx context.Context, where sqlite.BoolExpression) ([]*model.Mediafile, error)
	ListUnmatchedMediafiles(ctx context.Context, libraryID int64) ([]*model.Mediafile, error)
	ListMediafilesByMedia(ctx context.Context, mediaID int64) ([]*model.Mediafile, error)
	// ListMediafilesUnderPath returns the library's files whose path is below dir
	ListMediafilesUnderPath(ctx context.Context, libraryID int64, dir string) ([]*model.Mediafile, error)
	CountMediafiles(ctx context.Context, mediaID int64) (int64, error)
	UpdateMediafile(ctx context.Context, id int64, update MediafileUpdate) error
	DeleteMediafile(ctx context.Context, id int64) error
}

type InsertableAsset struct {
	RemoteURL *string
	LocalPath string
	FileExt   string
}

type AssetStorage interface {
	// CreateAsset returns the existing row when an asset with the same local path is already stored
	CreateAsset(ctx context.Context, asset InsertableAsset) (*model.Assets, error)
	GetAsset(ctx context.Context, id int64) (*model.Assets, error)
	GetAssetByLocalPath(ctx context.Context, localPath string) (*model.Assets, error)
}

type GenreStorage interface {
	// CreateGenre upserts a genre by its uppercased name and returns its id
	CreateGenre(ctx context.Context, name string) (int64, error)
	GetGenreByName(ctx context.Context, name string) (*model.Genre, error)
	ListGenres(ctx context.Context) ([]*model.Genre, error)
	ListMediaGenres(ctx context.Context, mediaID int64) ([]*model.Genre, error)
	// ReplaceMediaGenres drops the media's existing genre edges and links the given names
	ReplaceMediaGenres(ctx context.Context, mediaID int64, names []string) error
}

type Role string

const (
	RoleOwner Role = "owner"
	RoleUser  Role = "user"
)

// User is a stored account with its decoded roles
type User struct {
	model.Users
}

func (u User) RoleList() []string {
	if u.Roles == "" {
		return nil
	}
	return strings.Split(u.Roles, ",")
}

func (u User) HasRole(r Role) bool {
	for _, role := range u.RoleList() {
		if role == string(r) {
			return true
		}
	}
	return false
}

type InsertableUser struct {
	Username      string
	Password      string
	Roles         []Role
	ClaimedInvite *string
}

type UserStorage interface {
	CreateUser(ctx context.Context, user InsertableUser) (int64, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	CountUsers(ctx context.Context) (int64, error)
	UpdateUserPrefs(ctx context.Context, id int64, prefs string) error

	CreateInvite(ctx context.Context, token string) error
	ListInvites(ctx context.Context) ([]*model.Invites, error)
	// InviteClaimable reports whether the invite exists and has not been used
	InviteClaimable(ctx context.Context, token string) (bool, error)
	DeleteInvite(ctx context.Context, token string) error
}

type ProgressStorage interface {
	SetProgress(ctx context.Context, userID, mediaID, delta int64) error
	GetProgress(ctx context.Context, userID, mediaID int64) (*model.Progress, error)
}

type SettingsStorage interface {
	GetHostSettings(ctx context.Context) (string, error)
	SetHostSettings(ctx context.Context, settings string) error
}

// Op is the kind of row change reported to a ChangeHook
type Op int

const (
	OpInsert Op = iota + 1
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// ChangeHook receives row changes made through the writer connection.
// OnUpdate, OnCommit and OnRollback run inside the database call and must not block.
// OnVisible runs once a committed transaction can be seen by readers.
type ChangeHook interface {
	OnUpdate(op Op, table string, rowID int64)
	OnCommit()
	OnRollback()
	OnVisible()
}
