package matcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path"
	"strings"

	"github.com/Dusk-Labs/dim-sub002/pkg/events"
	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"github.com/Dusk-Labs/dim-sub002/pkg/metrics"
	"github.com/Dusk-Labs/dim-sub002/pkg/parser"
	"github.com/Dusk-Labs/dim-sub002/pkg/provider"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AssetDir is the folder below the metadata directory that holds fetched images
const AssetDir = "images"

const defaultWorkers = 4

var (
	ErrUnsupportedMediaType = errors.New("no matcher for media type")
	ErrMediaTypeMismatch    = errors.New("media type does not match the library")
	ErrNoEpisodeNumber      = errors.New("mediafile has no season and episode number")
	ErrNoMatch              = errors.New("no candidate matched")
)

// WorkUnit is a file waiting to be matched along with the metadata guesses for it, best first
type WorkUnit struct {
	Mediafile  model.Mediafile
	Candidates []parser.Metadata
}

// Result counts the outcome of a batch
type Result struct {
	Matched   int
	Unmatched int
}

// Matcher attaches mediafiles to media found through a provider. Movie and tv libraries
// each get their own matcher.
type Matcher struct {
	kind      storage.MediaType
	store     storage.Storage
	publisher events.Publisher
	workers   int
}

type Option func(*Matcher)

// WithWorkers bounds how many units are matched at once
func WithWorkers(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.workers = n
		}
	}
}

func New(kind storage.MediaType, store storage.Storage, publisher events.Publisher, opts ...Option) (*Matcher, error) {
	if kind != storage.MediaTypeMovie && kind != storage.MediaTypeTv {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, kind)
	}
	if publisher == nil {
		publisher = events.Discard
	}

	m := &Matcher{
		kind:      kind,
		store:     store,
		publisher: publisher,
		workers:   defaultWorkers,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Matcher) Kind() storage.MediaType {
	return m.kind
}

// BatchMatch matches every unit. A unit that fails is logged and counted as unmatched.
// Only cancellation is returned as an error.
func (m *Matcher) BatchMatch(ctx context.Context, p provider.Provider, units []WorkUnit) (Result, error) {
	log := logger.FromCtx(ctx, "media_type", m.kind)

	results := make([]bool, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)

	for i, unit := range units {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			err := m.matchUnit(gctx, p, unit)
			switch {
			case err == nil:
				results[i] = true
				metrics.Matches.WithLabelValues(string(m.kind), "matched").Inc()
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				return err
			case errors.Is(err, ErrNoMatch) || errors.Is(err, ErrNoEpisodeNumber):
				metrics.Matches.WithLabelValues(string(m.kind), "unmatched").Inc()
				log.Debugw("mediafile left unmatched", "mediafile", unit.Mediafile.ID, "reason", err)
			default:
				metrics.Matches.WithLabelValues(string(m.kind), "error").Inc()
				log.Warnw("failed to match mediafile", "mediafile", unit.Mediafile.ID, "path", unit.Mediafile.TargetFile, zap.Error(err))
			}
			return nil
		})
	}

	err := g.Wait()

	var res Result
	for _, ok := range results {
		if ok {
			res.Matched++
		} else {
			res.Unmatched++
		}
	}
	return res, err
}

// MatchToID rematches a mediafile to the provider's media with externalID, skipping search.
// The media the file belonged to before is left in place.
func (m *Matcher) MatchToID(ctx context.Context, p provider.Provider, mediafileID int64, externalID string) error {
	mediafile, err := m.mediafile(ctx, mediafileID)
	if err != nil {
		return err
	}

	candidate := parser.Metadata{
		Name:    mediafile.RawName,
		Year:    mediafile.RawYear,
		Season:  mediafile.Season,
		Episode: mediafile.Episode,
	}
	if m.kind == storage.MediaTypeTv && !candidate.HasEpisode() {
		return ErrNoEpisodeNumber
	}

	ext, err := p.SearchByID(ctx, externalID)
	if err != nil {
		return err
	}

	return m.apply(ctx, p, *mediafile, ext, candidate)
}

func (m *Matcher) mediafile(ctx context.Context, id int64) (*model.Mediafile, error) {
	tx, err := m.store.ReadTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Done()

	mediafile, err := tx.GetMediafile(ctx, id)
	if err != nil {
		return nil, err
	}
	library, err := tx.GetLibrary(ctx, mediafile.LibraryID)
	if err != nil {
		return nil, err
	}
	if storage.MediaType(library.MediaType) != m.kind {
		return nil, fmt.Errorf("%w: library %d holds %s", ErrMediaTypeMismatch, library.ID, library.MediaType)
	}
	return mediafile, nil
}

func (m *Matcher) matchUnit(ctx context.Context, p provider.Provider, unit WorkUnit) error {
	candidates := unit.Candidates
	if m.kind == storage.MediaTypeTv {
		candidates = preferEpisodes(candidates)
		if len(candidates) == 0 {
			return ErrNoEpisodeNumber
		}
	}

	for _, candidate := range candidates {
		if strings.TrimSpace(candidate.Name) == "" {
			continue
		}

		results, err := p.Search(ctx, candidate.Name, candidate.Year)
		if provider.IsNotFound(err) {
			continue
		}
		if err != nil {
			return err
		}
		if len(results) == 0 {
			continue
		}

		return m.apply(ctx, p, unit.Mediafile, results[0], candidate)
	}

	return ErrNoMatch
}

// preferEpisodes keeps the candidates that carry both numbers, in their original order
func preferEpisodes(candidates []parser.Metadata) []parser.Metadata {
	out := make([]parser.Metadata, 0, len(candidates))
	for _, c := range candidates {
		if c.HasEpisode() {
			out = append(out, c)
		}
	}
	return out
}

// details is what a tv match learns beyond the show itself
type details struct {
	season  *provider.ExternalSeason
	episode *provider.ExternalEpisode
}

func (m *Matcher) apply(ctx context.Context, p provider.Provider, mediafile model.Mediafile, ext provider.ExternalMedia, candidate parser.Metadata) error {
	var extra details
	if m.kind == storage.MediaTypeTv {
		extra = m.tvDetails(ctx, p, ext.ExternalID, *candidate.Season, *candidate.Episode)
	}

	var cardID int64
	err := m.store.WithWriteTx(ctx, func(tx storage.Tx) error {
		mediaID, err := upsertMedia(ctx, tx, mediafile.LibraryID, m.kind, ext, candidate)
		if err != nil {
			return err
		}
		cardID = mediaID

		target := mediaID
		if m.kind == storage.MediaTypeTv {
			target, err = upsertEpisode(ctx, tx, mediafile.LibraryID, mediaID, *candidate.Season, *candidate.Episode, extra)
			if err != nil {
				return err
			}
		}

		year := ext.Year()
		if year == nil {
			year = candidate.Year
		}
		update := storage.MediafileUpdate{
			MediaID: &target,
			RawName: &ext.Title,
			RawYear: year,
		}
		if m.kind == storage.MediaTypeTv {
			update.Season = candidate.Season
			update.Episode = candidate.Episode
		}
		return tx.UpdateMediafile(ctx, mediafile.ID, update)
	})
	if err != nil {
		return err
	}

	logger.FromCtx(ctx).Debugw("matched mediafile", "mediafile", mediafile.ID, "media", cardID, "title", ext.Title)
	m.publisher.Publish(events.MediafileMatched(cardID, mediafile.ID, mediafile.LibraryID))
	return nil
}

func (m *Matcher) tvDetails(ctx context.Context, p provider.Provider, externalID string, season, episode int64) details {
	var d details
	tv, ok := p.(provider.TvProvider)
	if !ok {
		return d
	}
	log := logger.FromCtx(ctx)

	seasons, err := tv.SeasonsForID(ctx, externalID)
	if err != nil && !provider.IsNotFound(err) {
		log.Debugw("could not load seasons", "external_id", externalID, zap.Error(err))
	}
	for i := range seasons {
		if seasons[i].SeasonNumber == season {
			d.season = &seasons[i]
			break
		}
	}

	episodes, err := tv.EpisodesForSeason(ctx, externalID, season)
	if err != nil && !provider.IsNotFound(err) {
		log.Debugw("could not load episodes", "external_id", externalID, "season", season, zap.Error(err))
	}
	for i := range episodes {
		if episodes[i].Episode == episode {
			d.episode = &episodes[i]
			break
		}
	}
	return d
}

// upsertMedia reuses the library's media with the same name or creates it, then copies the
// provider's metadata onto it and replaces its genres
func upsertMedia(ctx context.Context, tx storage.Tx, libraryID int64, kind storage.MediaType, ext provider.ExternalMedia, candidate parser.Metadata) (int64, error) {
	poster, err := firstAsset(ctx, tx, ext.Posters)
	if err != nil {
		return 0, err
	}
	backdrop, err := firstAsset(ctx, tx, ext.Backdrops)
	if err != nil {
		return 0, err
	}

	year := ext.Year()
	if year == nil {
		year = candidate.Year
	}
	var description *string
	if ext.Description != "" {
		description = &ext.Description
	}
	rating := Rating(ext.Rating)

	var mediaID int64
	existing, err := tx.GetMediaByName(ctx, libraryID, ext.Title, kind)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		mediaID, err = tx.CreateMedia(ctx, model.Media{
			LibraryID:   libraryID,
			Name:        ext.Title,
			Description: description,
			Rating:      rating,
			Year:        year,
			Poster:      poster,
			Backdrop:    backdrop,
			MediaType:   string(kind),
		})
		if err != nil {
			return 0, err
		}
	case err != nil:
		return 0, err
	default:
		mediaID = existing.ID
		err = tx.UpdateMedia(ctx, mediaID, storage.MediaUpdate{
			Description: description,
			Rating:      rating,
			Year:        year,
			Poster:      poster,
			Backdrop:    backdrop,
		})
		if err != nil {
			return 0, err
		}
	}

	if err := tx.ReplaceMediaGenres(ctx, mediaID, ext.Genres); err != nil {
		return 0, err
	}
	return mediaID, nil
}

// upsertEpisode ensures the season and the episode media exist below the show and returns the episode's id
func upsertEpisode(ctx context.Context, tx storage.Tx, libraryID, showID, seasonNumber, episodeNumber int64, extra details) (int64, error) {
	var seasonID int64
	season, err := tx.GetSeasonByNumber(ctx, showID, seasonNumber)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		var poster *int64
		if extra.season != nil && extra.season.Poster != nil {
			poster, err = firstAsset(ctx, tx, []string{*extra.season.Poster})
			if err != nil {
				return 0, err
			}
		}
		seasonID, err = tx.CreateSeason(ctx, model.Season{TvShowID: showID, SeasonNumber: seasonNumber, Poster: poster})
		if err != nil {
			return 0, err
		}
	case err != nil:
		return 0, err
	default:
		seasonID = season.ID
	}

	episode, err := tx.GetEpisodeByNumber(ctx, seasonID, episodeNumber)
	if err == nil {
		return episode.Episode.ID, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return 0, err
	}

	media := model.Media{
		LibraryID: libraryID,
		Name:      fmt.Sprintf("Episode %d", episodeNumber),
		MediaType: string(storage.MediaTypeEpisode),
	}
	if ep := extra.episode; ep != nil {
		if ep.Title != "" {
			media.Name = ep.Title
		}
		if ep.Description != "" {
			media.Description = &ep.Description
		}
		if ep.ReleaseDate != nil {
			y := int64(ep.ReleaseDate.Year())
			media.Year = &y
		}
		if ep.Still != nil {
			media.Backdrop, err = firstAsset(ctx, tx, []string{*ep.Still})
			if err != nil {
				return 0, err
			}
		}
	}

	episodeID, err := tx.CreateMedia(ctx, media)
	if err != nil {
		return 0, err
	}
	if err := tx.CreateEpisode(ctx, model.Episode{ID: episodeID, SeasonID: seasonID, Episode: episodeNumber}); err != nil {
		return 0, err
	}
	return episodeID, nil
}

// firstAsset stores the first remote image as an asset row. The fetch is queued once the row is committed.
func firstAsset(ctx context.Context, tx storage.Tx, urls []string) (*int64, error) {
	for _, u := range urls {
		if u == "" {
			continue
		}
		local, ext := AssetPath(u)
		remote := u
		asset, err := tx.CreateAsset(ctx, storage.InsertableAsset{RemoteURL: &remote, LocalPath: local, FileExt: ext})
		if err != nil {
			return nil, err
		}
		return &asset.ID, nil
	}
	return nil, nil
}

// AssetPath maps a remote image url to its path below the metadata directory and its extension
func AssetPath(remote string) (string, string) {
	name := path.Base(remote)
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return path.Join(AssetDir, name), strings.TrimPrefix(path.Ext(name), ".")
}

// Rating scales a provider rating in [0, 1] to [0, 10] with one decimal
func Rating(r *float64) *float64 {
	if r == nil {
		return nil
	}
	scaled := math.Round(*r*100) / 10
	return &scaled
}
