package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"github.com/Dusk-Labs/dim-sub002/pkg/provider"
	"go.uber.org/zap"

	mhttp "github.com/Dusk-Labs/dim-sub002/pkg/http"
)

const (
	DefaultBaseURL   = "https://api.themoviedb.org/3"
	DefaultImageBase = "https://image.tmdb.org/t/p/original"
	DefaultTimeout   = 10 * time.Second

	language = "en-US"
)

// Kind selects the tmdb endpoints a client talks to
type Kind string

const (
	Movie Kind = "movie"
	Tv    Kind = "tv"
)

type Config struct {
	BaseURL   string
	ImageBase string
	APIKey    string
	Timeout   time.Duration
}

// Client is a tmdb backed provider for either movies or shows
type Client struct {
	kind   Kind
	cfg    Config
	client mhttp.HTTPClient
	cache  *RequestCache
}

var (
	_ provider.Provider   = (*Client)(nil)
	_ provider.TvProvider = (*Client)(nil)
)

type Option func(*Client)

// WithHTTPClient sets the transport. It defaults to a rate limited client.
func WithHTTPClient(client mhttp.HTTPClient) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithCache shares a request cache between clients
func WithCache(cache *RequestCache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

func New(kind Kind, cfg Config, opts ...Option) (*Client, error) {
	if kind != Movie && kind != Tv {
		return nil, fmt.Errorf("%w: %q", provider.ErrInvalidMediaType, kind)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ImageBase == "" {
		cfg.ImageBase = DefaultImageBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	c := &Client{
		kind: kind,
		cfg:  cfg,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = mhttp.NewRateLimitedHTTPClient()
	}
	if c.cache == nil {
		c.cache = NewRequestCache(DefaultCacheTTL, DefaultMaxCacheBytes)
	}

	return c, nil
}

func (c *Client) Kind() Kind {
	return c.kind
}

// Search queries tmdb for title, narrowed to year when given
func (c *Client) Search(ctx context.Context, title string, year *int64) ([]provider.ExternalMedia, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, provider.ErrNoResults
	}

	params := url.Values{}
	params.Set("query", title)
	params.Set("page", "1")
	params.Set("include_adult", "false")

	key := requestKey{kind: keySearch, media: c.kind, query: strings.ToLower(title)}
	if year != nil {
		key.year = *year
		yearParam := "year"
		if c.kind == Tv {
			yearParam = "first_air_date_year"
		}
		params.Set(yearParam, strconv.FormatInt(*year, 10))
	}

	body, err := c.get(ctx, key, "/search/"+string(c.kind), params)
	if err != nil {
		return nil, err
	}

	resp, err := decode[searchResponse](body)
	if err != nil {
		return nil, &provider.DeserializationError{Body: body, Err: err}
	}
	if len(resp.Results) == 0 {
		return nil, provider.ErrNoResults
	}

	genres, err := c.genres(ctx)
	if err != nil {
		logger.FromCtx(ctx).Debug("continuing without genre names", zap.Error(err))
	}

	media := make([]provider.ExternalMedia, 0, len(resp.Results))
	for _, r := range resp.Results {
		m := c.toExternal(r)
		for _, id := range r.GenreIDs {
			if name, ok := genres[id]; ok {
				m.Genres = append(m.Genres, name)
			}
		}
		media = append(media, m)
	}
	return media, nil
}

// SearchByID looks up a single movie or show
func (c *Client) SearchByID(ctx context.Context, externalID string) (provider.ExternalMedia, error) {
	details, err := c.details(ctx, externalID)
	if err != nil {
		return provider.ExternalMedia{}, err
	}

	m := c.toExternal(details.searchResult)
	for _, g := range details.Genres {
		m.Genres = append(m.Genres, g.Name)
	}

	var runtime *int64
	switch {
	case details.Runtime != nil && *details.Runtime > 0:
		runtime = details.Runtime
	case len(details.EpisodeRunTime) > 0:
		runtime = &details.EpisodeRunTime[0]
	}
	if runtime != nil {
		seconds := *runtime * 60
		m.Duration = &seconds
	}

	return m, nil
}

// Cast lists the credited actors in billing order
func (c *Client) Cast(ctx context.Context, externalID string) ([]provider.ExternalActor, error) {
	id, err := validID(externalID)
	if err != nil {
		return nil, err
	}

	key := requestKey{kind: keyActorByID, media: c.kind, id: id}
	body, err := c.get(ctx, key, fmt.Sprintf("/%s/%s/credits", c.kind, id), nil)
	if err != nil {
		return nil, err
	}

	resp, err := decode[creditsResponse](body)
	if err != nil {
		return nil, &provider.DeserializationError{Body: body, Err: err}
	}

	sort.SliceStable(resp.Cast, func(i, j int) bool {
		return resp.Cast[i].Order < resp.Cast[j].Order
	})

	actors := make([]provider.ExternalActor, 0, len(resp.Cast))
	for _, a := range resp.Cast {
		actors = append(actors, provider.ExternalActor{
			ExternalID: idString(a.ID),
			Name:       a.Name,
			Character:  a.Character,
			Profile:    c.image(a.ProfilePath),
		})
	}
	return actors, nil
}

// SeasonsForID lists a show's seasons by season number
func (c *Client) SeasonsForID(ctx context.Context, externalID string) ([]provider.ExternalSeason, error) {
	if c.kind != Tv {
		return nil, provider.ErrInvalidMediaType
	}

	details, err := c.details(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if len(details.Seasons) == 0 {
		return nil, provider.ErrNoSeasonsFound
	}

	seasons := make([]provider.ExternalSeason, 0, len(details.Seasons))
	for _, s := range details.Seasons {
		seasons = append(seasons, provider.ExternalSeason{
			ExternalID:   idString(s.ID),
			Title:        s.Name,
			Description:  s.Overview,
			Poster:       c.image(s.PosterPath),
			SeasonNumber: s.SeasonNumber,
			ReleaseDate:  parseDate(s.AirDate),
		})
	}

	sort.SliceStable(seasons, func(i, j int) bool {
		return seasons[i].SeasonNumber < seasons[j].SeasonNumber
	})
	return seasons, nil
}

// EpisodesForSeason lists a season's episodes by episode number
func (c *Client) EpisodesForSeason(ctx context.Context, externalID string, season int64) ([]provider.ExternalEpisode, error) {
	if c.kind != Tv {
		return nil, provider.ErrInvalidMediaType
	}

	id, err := validID(externalID)
	if err != nil {
		return nil, err
	}

	key := requestKey{kind: keyEpisodes, media: c.kind, id: id, season: season}
	body, err := c.get(ctx, key, fmt.Sprintf("/tv/%s/season/%d", id, season), nil)
	var remote *provider.RemoteAPIError
	if errors.As(err, &remote) && remote.Code == http.StatusNotFound {
		return nil, provider.ErrNoEpisodesFound
	}
	if err != nil {
		return nil, err
	}

	resp, err := decode[seasonResponse](body)
	if err != nil {
		return nil, &provider.DeserializationError{Body: body, Err: err}
	}
	if len(resp.Episodes) == 0 {
		return nil, provider.ErrNoEpisodesFound
	}

	episodes := make([]provider.ExternalEpisode, 0, len(resp.Episodes))
	for _, e := range resp.Episodes {
		ep := provider.ExternalEpisode{
			ExternalID:  idString(e.ID),
			Title:       e.Name,
			Description: e.Overview,
			Episode:     e.EpisodeNumber,
			Still:       c.image(e.StillPath),
			ReleaseDate: parseDate(e.AirDate),
		}
		if e.Runtime != nil {
			seconds := *e.Runtime * 60
			ep.Duration = &seconds
		}
		episodes = append(episodes, ep)
	}

	sort.SliceStable(episodes, func(i, j int) bool {
		return episodes[i].Episode < episodes[j].Episode
	})
	return episodes, nil
}

func (c *Client) details(ctx context.Context, externalID string) (detailsResponse, error) {
	id, err := validID(externalID)
	if err != nil {
		return detailsResponse{}, err
	}

	key := requestKey{kind: keyByID, media: c.kind, id: id}
	body, err := c.get(ctx, key, fmt.Sprintf("/%s/%s", c.kind, id), nil)
	if err != nil {
		return detailsResponse{}, err
	}

	details, err := decode[detailsResponse](body)
	if err != nil {
		return detailsResponse{}, &provider.DeserializationError{Body: body, Err: err}
	}
	return details, nil
}

// genres maps tmdb genre ids to names
func (c *Client) genres(ctx context.Context) (map[int64]string, error) {
	key := requestKey{kind: keyGenreList, media: c.kind}
	body, err := c.get(ctx, key, fmt.Sprintf("/genre/%s/list", c.kind), nil)
	if err != nil {
		return nil, err
	}

	resp, err := decode[genreListResponse](body)
	if err != nil {
		return nil, &provider.DeserializationError{Body: body, Err: err}
	}
	if len(resp.Genres) == 0 {
		return nil, provider.ErrNoGenreFound
	}

	genres := make(map[int64]string, len(resp.Genres))
	for _, g := range resp.Genres {
		genres[g.ID] = g.Name
	}
	return genres, nil
}

func (c *Client) toExternal(r searchResult) provider.ExternalMedia {
	m := provider.ExternalMedia{
		ExternalID:  idString(r.ID),
		Title:       r.title(),
		ReleaseDate: r.releaseDate(),
		Posters:     []string{},
		Backdrops:   []string{},
		Genres:      []string{},
	}
	if r.Overview != nil {
		m.Description = *r.Overview
	}
	if r.VoteAverage != nil {
		rating := *r.VoteAverage / 10
		m.Rating = &rating
	}
	if poster := c.image(r.PosterPath); poster != nil {
		m.Posters = append(m.Posters, *poster)
	}
	if backdrop := c.image(r.BackdropPath); backdrop != nil {
		m.Backdrops = append(m.Backdrops, *backdrop)
	}
	return m
}

func (c *Client) image(path *string) *string {
	if path == nil || *path == "" {
		return nil
	}
	u := c.cfg.ImageBase + *path
	return &u
}

var errInvalidID = errors.New("invalid tmdb id")

// validID checks that an external id is a tmdb numeric id
func validID(externalID string) (string, error) {
	id := strings.TrimSpace(externalID)
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return "", &provider.RemoteAPIError{Code: http.StatusNotFound, Message: fmt.Sprintf("%v: %q", errInvalidID, externalID)}
	}
	return id, nil
}

// get performs a cached GET against the api
func (c *Client) get(ctx context.Context, key requestKey, path string, params url.Values) (string, error) {
	return c.cache.Do(ctx, key, func(ctx context.Context) (string, error) {
		return c.request(ctx, path, params)
	})
}

func (c *Client) request(ctx context.Context, path string, params url.Values) (string, error) {
	log := logger.FromCtx(ctx)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("api_key", c.cfg.APIKey)
	query.Set("language", language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", provider.ErrOther, err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	switch {
	case errors.Is(err, mhttp.ErrMaxRetries):
		return "", fmt.Errorf("%w: %w", provider.ErrReachedMaxTries, err)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "", provider.ErrTimeout
	case err != nil:
		return "", fmt.Errorf("%w: %w", provider.ErrOther, err)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", provider.ErrTimeout
		}
		return "", fmt.Errorf("%w: %w", provider.ErrOther, err)
	}
	body := string(b)

	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if apiErr, err := decode[errorResponse](body); err == nil && apiErr.StatusMessage != "" {
			msg = apiErr.StatusMessage
		}
		log.Debugw("tmdb request failed", "path", path, "status", resp.StatusCode)
		return "", &provider.RemoteAPIError{Code: resp.StatusCode, Message: msg}
	}

	return body, nil
}
