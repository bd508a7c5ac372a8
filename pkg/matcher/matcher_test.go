package matcher

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Dusk-Labs/dim-sub002/pkg/events"
	"github.com/Dusk-Labs/dim-sub002/pkg/parser"
	"github.com/Dusk-Labs/dim-sub002/pkg/provider"
	"github.com/Dusk-Labs/dim-sub002/pkg/provider/providertest"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	msgs []events.Message
}

func (r *recorder) Publish(msg events.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) messages() []events.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Message(nil), r.msgs...)
}

func date(s string) *time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return &t
}

func float(f float64) *float64 {
	return &f
}

func i64(n int64) *int64 {
	return &n
}

func newStore(t *testing.T) *sqlite.SQLite {
	t.Helper()
	store, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "dim.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// seedFile creates a library of the given kind holding one unmatched file
func seedFile(t *testing.T, store storage.Storage, kind storage.MediaType, path string) model.Mediafile {
	t.Helper()
	ctx := context.Background()

	var file model.Mediafile
	err := store.WithWriteTx(ctx, func(tx storage.Tx) error {
		libraryID, err := tx.CreateLibrary(ctx, storage.InsertableLibrary{Name: string(kind), MediaType: kind, Locations: []string{filepath.Dir(path)}})
		if err != nil {
			return err
		}

		meta := parser.Parse(filepath.Base(path))
		file = model.Mediafile{LibraryID: libraryID, TargetFile: path, RawName: meta.Name, RawYear: meta.Year, Season: meta.Season, Episode: meta.Episode}
		file.ID, err = tx.CreateMediafile(ctx, file)
		return err
	})
	require.NoError(t, err)
	return file
}

func read[T any](t *testing.T, store storage.Storage, fn func(tx storage.Tx) (T, error)) T {
	t.Helper()
	tx, err := store.ReadTx(context.Background())
	require.NoError(t, err)
	defer tx.Done()

	v, err := fn(tx)
	require.NoError(t, err)
	return v
}

func TestMatcher_Movie(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	rec := &recorder{}

	file := seedFile(t, store, storage.MediaTypeMovie, "/movies/Blade Runner 2049 (2017).mkv")

	fake := providertest.New().Add(provider.ExternalMedia{
		ExternalID:  "335984",
		Title:       "Blade Runner 2049",
		Description: "Thirty years after the events of the first film.",
		ReleaseDate: date("2017-10-04"),
		Posters:     []string{"https://image.tmdb.org/t/p/original/poster.jpg"},
		Backdrops:   []string{"https://image.tmdb.org/t/p/original/backdrop.jpg"},
		Genres:      []string{"Science Fiction", "Drama"},
		Rating:      float(0.81),
		Duration:    i64(163 * 60),
	})
	fake.YearStrict = true

	m, err := New(storage.MediaTypeMovie, store, rec)
	require.NoError(t, err)

	res, err := m.BatchMatch(ctx, fake, []WorkUnit{{Mediafile: file, Candidates: parser.Candidates("/movies", file.TargetFile)}})
	require.NoError(t, err)
	assert.Equal(t, Result{Matched: 1}, res)

	got := read(t, store, func(tx storage.Tx) (*model.Mediafile, error) { return tx.GetMediafile(ctx, file.ID) })
	require.NotNil(t, got.MediaID)
	assert.Equal(t, "Blade Runner 2049", got.RawName)
	assert.Equal(t, i64(2017), got.RawYear)

	media := read(t, store, func(tx storage.Tx) (*model.Media, error) { return tx.GetMedia(ctx, *got.MediaID) })
	assert.Equal(t, "Blade Runner 2049", media.Name)
	assert.Equal(t, string(storage.MediaTypeMovie), media.MediaType)
	assert.Equal(t, i64(2017), media.Year)
	require.NotNil(t, media.Rating)
	assert.Equal(t, 8.1, *media.Rating)
	require.NotNil(t, media.Poster)
	require.NotNil(t, media.Backdrop)

	poster := read(t, store, func(tx storage.Tx) (*model.Assets, error) { return tx.GetAsset(ctx, *media.Poster) })
	assert.Equal(t, "images/poster.jpg", poster.LocalPath)
	assert.Equal(t, "jpg", poster.FileExt)

	genres := read(t, store, func(tx storage.Tx) ([]*model.Genre, error) { return tx.ListMediaGenres(ctx, media.ID) })
	assert.Len(t, genres, 2)

	assert.Equal(t, []events.Message{events.MediafileMatched(media.ID, file.ID, file.LibraryID)}, rec.messages())
}

func TestMatcher_MovieReusesMediaByName(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	first := seedFile(t, store, storage.MediaTypeMovie, "/movies/Blade.Runner.2049.2017.1080p.mkv")
	var second model.Mediafile
	err := store.WithWriteTx(ctx, func(tx storage.Tx) error {
		second = model.Mediafile{LibraryID: first.LibraryID, TargetFile: "/movies/Blade.Runner.2049.2017.2160p.mkv", RawName: "Blade Runner 2049"}
		var err error
		second.ID, err = tx.CreateMediafile(ctx, second)
		return err
	})
	require.NoError(t, err)

	fake := providertest.New().Add(provider.ExternalMedia{ExternalID: "1", Title: "Blade Runner 2049", Genres: []string{"Drama"}})
	m, err := New(storage.MediaTypeMovie, store, nil, WithWorkers(1))
	require.NoError(t, err)

	res, err := m.BatchMatch(ctx, fake, []WorkUnit{
		{Mediafile: first, Candidates: []parser.Metadata{{Name: "Blade Runner 2049"}}},
		{Mediafile: second, Candidates: []parser.Metadata{{Name: "Blade Runner 2049"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Matched)

	a := read(t, store, func(tx storage.Tx) (*model.Mediafile, error) { return tx.GetMediafile(ctx, first.ID) })
	b := read(t, store, func(tx storage.Tx) (*model.Mediafile, error) { return tx.GetMediafile(ctx, second.ID) })
	assert.Equal(t, *a.MediaID, *b.MediaID)
}

func TestMatcher_MovieFallsBackToNextCandidate(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	file := seedFile(t, store, storage.MediaTypeMovie, "/movies/Bladerunner/br.mkv")

	fake := providertest.New().Add(provider.ExternalMedia{ExternalID: "78", Title: "Blade Runner"}, "bladerunner")
	m, err := New(storage.MediaTypeMovie, store, nil)
	require.NoError(t, err)

	res, err := m.BatchMatch(ctx, fake, []WorkUnit{{Mediafile: file, Candidates: []parser.Metadata{{Name: "br"}, {Name: "Bladerunner"}}}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, []string{"br", "Bladerunner"}, fake.Searches())
}

func TestMatcher_NoResultsLeavesFileUnmatched(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	rec := &recorder{}
	file := seedFile(t, store, storage.MediaTypeMovie, "/movies/Unknown Film (2001).mkv")

	m, err := New(storage.MediaTypeMovie, store, rec)
	require.NoError(t, err)

	res, err := m.BatchMatch(ctx, providertest.New(), []WorkUnit{{Mediafile: file, Candidates: []parser.Metadata{{Name: "Unknown Film"}}}})
	require.NoError(t, err)
	assert.Equal(t, Result{Unmatched: 1}, res)

	got := read(t, store, func(tx storage.Tx) (*model.Mediafile, error) { return tx.GetMediafile(ctx, file.ID) })
	assert.Nil(t, got.MediaID)
	assert.Empty(t, rec.messages())
}

func TestMatcher_Tv(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	rec := &recorder{}
	file := seedFile(t, store, storage.MediaTypeTv, "/tv/Letterkenny S01E02.mkv")

	still := "https://image.tmdb.org/t/p/original/still.jpg"
	fake := providertest.New().
		Add(provider.ExternalMedia{ExternalID: "65798", Title: "Letterkenny", ReleaseDate: date("2016-02-07")}).
		AddSeasons("65798", provider.ExternalSeason{ExternalID: "s1", SeasonNumber: 1}).
		AddEpisodes("65798", 1, provider.ExternalEpisode{ExternalID: "e2", Title: "Super Soft Birthday", Episode: 2, Still: &still})

	m, err := New(storage.MediaTypeTv, store, rec)
	require.NoError(t, err)

	res, err := m.BatchMatch(ctx, fake, []WorkUnit{{Mediafile: file, Candidates: parser.Candidates("/tv", file.TargetFile)}})
	require.NoError(t, err)
	assert.Equal(t, Result{Matched: 1}, res)

	got := read(t, store, func(tx storage.Tx) (*model.Mediafile, error) { return tx.GetMediafile(ctx, file.ID) })
	require.NotNil(t, got.MediaID)
	assert.Equal(t, i64(1), got.Season)
	assert.Equal(t, i64(2), got.Episode)

	episode := read(t, store, func(tx storage.Tx) (*storage.Episode, error) { return tx.GetEpisode(ctx, *got.MediaID) })
	assert.Equal(t, int64(2), episode.Episode.Episode)
	assert.Equal(t, int64(1), episode.SeasonNumber)
	assert.Equal(t, "Super Soft Birthday", episode.Media.Name)
	assert.Equal(t, string(storage.MediaTypeEpisode), episode.Media.MediaType)
	assert.NotNil(t, episode.Media.Backdrop)

	show := read(t, store, func(tx storage.Tx) (*model.Media, error) { return tx.GetMedia(ctx, episode.TvShowID) })
	assert.Equal(t, "Letterkenny", show.Name)
	assert.Equal(t, string(storage.MediaTypeTv), show.MediaType)
	assert.Equal(t, i64(2016), show.Year)

	seasons := read(t, store, func(tx storage.Tx) ([]*model.Season, error) { return tx.ListSeasons(ctx, show.ID) })
	require.Len(t, seasons, 1)
	assert.Equal(t, int64(1), seasons[0].SeasonNumber)

	assert.Equal(t, []events.Message{events.MediafileMatched(show.ID, file.ID, file.LibraryID)}, rec.messages())
}

func TestMatcher_TvWithoutEpisodeNumberStaysUnmatched(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	file := seedFile(t, store, storage.MediaTypeTv, "/tv/Letterkenny.mkv")

	fake := providertest.New().Add(provider.ExternalMedia{ExternalID: "65798", Title: "Letterkenny"})
	m, err := New(storage.MediaTypeTv, store, nil)
	require.NoError(t, err)

	res, err := m.BatchMatch(ctx, fake, []WorkUnit{{Mediafile: file, Candidates: []parser.Metadata{{Name: "Letterkenny"}}}})
	require.NoError(t, err)
	assert.Equal(t, Result{Unmatched: 1}, res)
	assert.Empty(t, fake.Searches())
}

func TestMatcher_MatchToID(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	rec := &recorder{}
	file := seedFile(t, store, storage.MediaTypeMovie, "/movies/Blade Runner (1982).mkv")

	fake := providertest.New().
		Add(provider.ExternalMedia{ExternalID: "335984", Title: "Blade Runner 2049"}).
		Add(provider.ExternalMedia{ExternalID: "78", Title: "Blade Runner", ReleaseDate: date("1982-06-25")})

	m, err := New(storage.MediaTypeMovie, store, rec)
	require.NoError(t, err)

	_, err = m.BatchMatch(ctx, fake, []WorkUnit{{Mediafile: file, Candidates: []parser.Metadata{{Name: "Blade Runner 2049"}}}})
	require.NoError(t, err)
	before := read(t, store, func(tx storage.Tx) (*model.Mediafile, error) { return tx.GetMediafile(ctx, file.ID) })

	require.NoError(t, m.MatchToID(ctx, fake, file.ID, "78"))

	after := read(t, store, func(tx storage.Tx) (*model.Mediafile, error) { return tx.GetMediafile(ctx, file.ID) })
	assert.NotEqual(t, *before.MediaID, *after.MediaID)
	assert.Equal(t, "Blade Runner", after.RawName)
	assert.Equal(t, i64(1982), after.RawYear)

	// the previous media is left for the orphan sweep
	old := read(t, store, func(tx storage.Tx) (*model.Media, error) { return tx.GetMedia(ctx, *before.MediaID) })
	assert.Equal(t, "Blade Runner 2049", old.Name)
	assert.Len(t, rec.messages(), 2)
}

func TestMatcher_MatchToIDUnknownID(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	rec := &recorder{}
	file := seedFile(t, store, storage.MediaTypeMovie, "/movies/Blade Runner (1982).mkv")

	m, err := New(storage.MediaTypeMovie, store, rec)
	require.NoError(t, err)

	err = m.MatchToID(ctx, providertest.New(), file.ID, "999")
	assert.True(t, provider.IsNotFound(err))

	got := read(t, store, func(tx storage.Tx) (*model.Mediafile, error) { return tx.GetMediafile(ctx, file.ID) })
	assert.Nil(t, got.MediaID)
	assert.Empty(t, rec.messages())
}

func TestMatcher_MatchToIDWrongLibraryKind(t *testing.T) {
	store := newStore(t)
	file := seedFile(t, store, storage.MediaTypeMovie, "/movies/Blade Runner (1982).mkv")

	m, err := New(storage.MediaTypeTv, store, nil)
	require.NoError(t, err)

	err = m.MatchToID(context.Background(), providertest.New(), file.ID, "78")
	assert.ErrorIs(t, err, ErrMediaTypeMismatch)
}

func TestNew_RejectsEpisodeKind(t *testing.T) {
	_, err := New(storage.MediaTypeEpisode, nil, nil)
	assert.ErrorIs(t, err, ErrUnsupportedMediaType)
}

func TestRating(t *testing.T) {
	assert.Nil(t, Rating(nil))
	assert.Equal(t, 8.1, *Rating(float(0.81)))
	assert.Equal(t, 7.3, *Rating(float(0.7345)))
	assert.Equal(t, 10.0, *Rating(float(1)))
}

func TestAssetPath(t *testing.T) {
	local, ext := AssetPath("https://image.tmdb.org/t/p/original/abc123.png?lang=en")
	assert.Equal(t, "images/abc123.png", local)
	assert.Equal(t, "png", ext)
}
