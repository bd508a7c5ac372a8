package manager

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Dusk-Labs/dim-sub002/pkg/auth"
	"github.com/Dusk-Labs/dim-sub002/pkg/cdc"
	"github.com/Dusk-Labs/dim-sub002/pkg/events"
	"github.com/Dusk-Labs/dim-sub002/pkg/matcher"
	"github.com/Dusk-Labs/dim-sub002/pkg/pagination"
	"github.com/Dusk-Labs/dim-sub002/pkg/prober"
	"github.com/Dusk-Labs/dim-sub002/pkg/provider"
	"github.com/Dusk-Labs/dim-sub002/pkg/provider/providertest"
	"github.com/Dusk-Labs/dim-sub002/pkg/scanner"
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

func (r *recorder) has(kind events.Kind, id int64) bool {
	for _, m := range r.messages() {
		if m.Kind == kind && m.ID == id {
			return true
		}
	}
	return false
}

type fakeProber struct{}

func (fakeProber) Probe(context.Context, string) (prober.Info, error) {
	duration := int64(9780)
	return prober.Info{Container: "matroska", Codec: "h264", Audio: "aac", Width: 1920, Height: 1080, Duration: &duration}, nil
}

func date(s string) *time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return &t
}

func rating(r float64) *float64 {
	return &r
}

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("video"), 0o644))
	return path
}

type env struct {
	m      *MediaManager
	store  *sqlite.SQLite
	rec    *recorder
	movies *providertest.Fake
	shows  *providertest.Fake
	auth   *auth.Authenticator
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	rec := &recorder{}
	reactor := cdc.New(rec)
	store, err := sqlite.New(ctx, filepath.Join(t.TempDir(), "dim.db"), sqlite.WithChangeHook(reactor))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	reactor.Attach(store)
	go reactor.Run(ctx)

	movies := providertest.New().
		Add(provider.ExternalMedia{
			ExternalID:  "335984",
			Title:       "Blade Runner 2049",
			Description: "Thirty years after the events of the first film.",
			ReleaseDate: date("2017-10-04"),
			Rating:      rating(0.81),
			Genres:      []string{"Science Fiction", "Drama"},
			Posters:     []string{"https://image.tmdb.org/t/p/original/blade.jpg"},
			Backdrops:   []string{"https://image.tmdb.org/t/p/original/blade-backdrop.jpg"},
		}).
		Add(provider.ExternalMedia{ExternalID: "603", Title: "The Matrix", ReleaseDate: date("1999-03-31"), Rating: rating(0.82)})
	shows := providertest.New().
		Add(provider.ExternalMedia{ExternalID: "65798", Title: "Letterkenny", ReleaseDate: date("2016-02-07")}).
		AddSeasons("65798", provider.ExternalSeason{ExternalID: "s1", SeasonNumber: 1}).
		AddEpisodes("65798", 1,
			provider.ExternalEpisode{ExternalID: "e2", Title: "Super Soft Birthday", Episode: 2},
			provider.ExternalEpisode{ExternalID: "e3", Title: "Fartin Around", Episode: 3},
		)

	authenticator, err := auth.New([]byte("secret"))
	require.NoError(t, err)

	providers := StaticProviders{storage.MediaTypeMovie: movies, storage.MediaTypeTv: shows}
	s := scanner.New(store, fakeProber{}, rec, scanner.WithProbeWorkers(2))
	m := New(store, providers, s, authenticator, WithPublisher(rec))
	t.Cleanup(m.Wait)

	return &env{m: m, store: store, rec: rec, movies: movies, shows: shows, auth: authenticator}
}

// library creates a library over a fresh root holding files and waits for its first scan
func (e *env) library(t *testing.T, kind storage.MediaType, files ...string) (Library, string) {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		touch(t, filepath.Join(root, f))
	}
	l, err := e.m.CreateLibrary(context.Background(), CreateLibraryRequest{Name: string(kind), MediaType: string(kind), Locations: []string{root}})
	require.NoError(t, err)
	e.m.Wait()
	return l, root
}

func (e *env) mediafile(t *testing.T, path string) *model.Mediafile {
	t.Helper()
	tx, err := e.store.ReadTx(context.Background())
	require.NoError(t, err)
	defer tx.Done()
	mf, err := tx.GetMediafileByPath(context.Background(), path)
	require.NoError(t, err)
	return mf
}

// user registers an account and returns its id
func (e *env) user(t *testing.T, name string) int64 {
	t.Helper()
	token, err := e.m.Register(context.Background(), RegisterRequest{Credentials: Credentials{Username: name, Password: "pw"}})
	require.NoError(t, err)
	claims, err := e.auth.Verify(token.Token)
	require.NoError(t, err)
	return claims.UserID
}

func TestMediaManager_Libraries(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	l, root := e.library(t, storage.MediaTypeMovie, "Blade Runner 2049 (2017).mkv", "Unknown Film (2001).avi")
	assert.Equal(t, "movie", l.MediaType)
	assert.Equal(t, []string{root}, l.Locations)

	libraries, err := e.m.ListLibraries(ctx)
	require.NoError(t, err)
	require.Len(t, libraries, 1)
	assert.Equal(t, l.ID, libraries[0].ID)

	got, err := e.m.GetLibrary(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l, got)

	media, err := e.m.LibraryMedia(ctx, l.ID, pagination.Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, media.Media, 1)
	assert.Equal(t, "Blade Runner 2049", media.Media[0].Name)
	assert.Equal(t, int64(2017), *media.Media[0].Year)
	require.NotNil(t, media.Media[0].PosterPath)
	assert.Equal(t, "/images/blade.jpg", *media.Media[0].PosterPath)
	assert.Equal(t, 1, media.Meta.TotalItems)

	unmatched, err := e.m.Unmatched(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, unmatched, 1)
	assert.Equal(t, "Unknown Film", unmatched[0].RawName)
	require.NotNil(t, unmatched[0].Size)
	assert.Equal(t, uint64(5), *unmatched[0].Size)
	assert.Equal(t, "5 B", unmatched[0].SizeHuman)

	require.NoError(t, e.m.DeleteLibrary(ctx, l.ID))
	_, err = e.m.GetLibrary(ctx, l.ID)
	assert.ErrorIs(t, err, scanner.ErrLibraryNotFound)
	libraries, err = e.m.ListLibraries(ctx)
	require.NoError(t, err)
	assert.Empty(t, libraries)
	assert.ErrorIs(t, e.m.DeleteLibrary(ctx, l.ID), scanner.ErrLibraryNotFound)

	require.Eventually(t, func() bool {
		return e.rec.has(events.KindNewLibrary, l.ID) && e.rec.has(events.KindRemoveLibrary, l.ID)
	}, time.Second, 5*time.Millisecond)
}

func TestMediaManager_CreateLibraryValidation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	tests := []struct {
		name string
		req  CreateLibraryRequest
	}{
		{name: "episode kind", req: CreateLibraryRequest{Name: "x", MediaType: "episode", Locations: []string{t.TempDir()}}},
		{name: "unknown kind", req: CreateLibraryRequest{Name: "x", MediaType: "music", Locations: []string{t.TempDir()}}},
		{name: "missing root", req: CreateLibraryRequest{Name: "x", MediaType: "movie", Locations: []string{filepath.Join(t.TempDir(), "missing")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.m.CreateLibrary(ctx, tt.req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}

	libraries, err := e.m.ListLibraries(ctx)
	require.NoError(t, err)
	assert.Empty(t, libraries)
}

func TestMediaManager_Scan(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	l, root := e.library(t, storage.MediaTypeMovie)

	touch(t, filepath.Join(root, "The Matrix (1999).mkv"))
	report, err := e.m.Scan(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, scanner.Report{Found: 1, Inserted: 1, Matched: 1}, report)

	require.NoError(t, e.m.ScanLibrary(ctx, l.ID))
	e.m.Wait()

	_, err = e.m.Scan(ctx, 999)
	assert.ErrorIs(t, err, scanner.ErrLibraryNotFound)
}

func TestMediaManager_Media(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	_, root := e.library(t, storage.MediaTypeMovie, "Blade Runner 2049 (2017).mkv")

	mf := e.mediafile(t, filepath.Join(root, "Blade Runner 2049 (2017).mkv"))
	require.NotNil(t, mf.MediaID)
	id := *mf.MediaID

	media, err := e.m.GetMedia(ctx, 1, id)
	require.NoError(t, err)
	assert.Equal(t, "Blade Runner 2049", media.Name)
	assert.Equal(t, 8.1, *media.Rating)
	assert.ElementsMatch(t, []string{"Science Fiction", "Drama"}, media.Genres)
	assert.Equal(t, int64(9780), *media.Duration)
	assert.Equal(t, "/images/blade-backdrop.jpg", *media.BackdropPath)
	require.Len(t, media.Files, 1)
	assert.Equal(t, int64(0), media.Progress)

	user := e.user(t, "admin")
	require.NoError(t, e.m.SetProgress(ctx, user, id, 600))
	media, err = e.m.GetMedia(ctx, user, id)
	require.NoError(t, err)
	assert.Equal(t, int64(600), media.Progress)
	media, err = e.m.GetMedia(ctx, user+1, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), media.Progress)
	assert.ErrorIs(t, e.m.SetProgress(ctx, user, id, -1), ErrInvalidRequest)

	var update UpdateMediaRequest
	update.Name.Set("Blade Runner: 2049")
	update.Year.Set(2018)
	media, err = e.m.UpdateMedia(ctx, 1, id, update)
	require.NoError(t, err)
	assert.Equal(t, "Blade Runner: 2049", media.Name)
	assert.Equal(t, int64(2018), *media.Year)

	var null UpdateMediaRequest
	null.Name.SetNull()
	_, err = e.m.UpdateMedia(ctx, 1, id, null)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	var bad UpdateMediaRequest
	bad.Rating.Set(11)
	_, err = e.m.UpdateMedia(ctx, 1, id, bad)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	require.NoError(t, e.m.DeleteMedia(ctx, id))
	_, err = e.m.GetMedia(ctx, 1, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Nil(t, e.mediafile(t, mf.TargetFile).MediaID)

	require.Eventually(t, func() bool { return e.rec.has(events.KindRemoveCard, id) }, time.Second, 5*time.Millisecond)
}

type immediateQueue struct {
	jobs [][2]string
}

func (q *immediateQueue) EnqueueImmediate(url, outfile string) {
	q.jobs = append(q.jobs, [2]string{url, outfile})
}

func TestMediaManager_RequestAsset(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	queue := &immediateQueue{}
	e.m.assets = queue
	e.library(t, storage.MediaTypeMovie, "Blade Runner 2049 (2017).mkv")

	require.NoError(t, e.m.RequestAsset(ctx, "blade.jpg"))
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, [2]string{"https://image.tmdb.org/t/p/original/blade.jpg", "images/blade.jpg"}, queue.jobs[0])

	assert.ErrorIs(t, e.m.RequestAsset(ctx, "missing.jpg"), storage.ErrNotFound)
	assert.ErrorIs(t, e.m.RequestAsset(ctx, ""), storage.ErrNotFound)
	// names cannot climb out of the asset dir
	assert.NoError(t, e.m.RequestAsset(ctx, "../blade.jpg"))
	assert.Len(t, queue.jobs, 2)
}

func TestMediaManager_SearchAndDashboard(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	l, _ := e.library(t, storage.MediaTypeMovie, "Blade Runner 2049 (2017).mkv", "The Matrix (1999).mkv")

	found, err := e.m.Search(ctx, SearchRequest{Query: "matrix"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "The Matrix", found[0].Name)

	year := int64(2017)
	found, err = e.m.Search(ctx, SearchRequest{Year: &year, LibraryID: &l.ID})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Blade Runner 2049", found[0].Name)

	genre := "drama"
	found, err = e.m.Search(ctx, SearchRequest{Genre: &genre})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Blade Runner 2049", found[0].Name)

	dashboard, err := e.m.Dashboard(ctx)
	require.NoError(t, err)
	require.Len(t, dashboard[SectionTopRated], 2)
	assert.Equal(t, "The Matrix", dashboard[SectionTopRated][0].Name)
	assert.Len(t, dashboard[SectionRecentlyAdded], 2)

	banner, err := e.m.Banner(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Blade Runner 2049", banner.Title)
	assert.Equal(t, "/images/blade-backdrop.jpg", *banner.BackdropPath)
	assert.Equal(t, int64(9780), *banner.Duration)
}

func TestMediaManager_BannerWithoutBackdrops(t *testing.T) {
	e := newEnv(t)
	e.library(t, storage.MediaTypeMovie, "The Matrix (1999).mkv")

	_, err := e.m.Banner(context.Background(), 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMediaManager_Tv(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	_, root := e.library(t, storage.MediaTypeTv, filepath.Join("Letterkenny", "Letterkenny.S01E02.mkv"))

	mf := e.mediafile(t, filepath.Join(root, "Letterkenny", "Letterkenny.S01E02.mkv"))
	require.NotNil(t, mf.MediaID)

	episode, err := e.m.GetEpisode(ctx, 1, *mf.MediaID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), episode.Episode)
	assert.Equal(t, int64(1), episode.SeasonNumber)
	assert.Equal(t, "Super Soft Birthday", episode.Name)
	require.Len(t, episode.Files, 1)

	seasons, err := e.m.ListSeasons(ctx, episode.TvShowID)
	require.NoError(t, err)
	require.Len(t, seasons, 1)
	assert.Equal(t, int64(1), seasons[0].SeasonNumber)

	show, err := e.m.GetMedia(ctx, 1, episode.TvShowID)
	require.NoError(t, err)
	assert.Equal(t, "Letterkenny", show.Name)
	assert.Equal(t, int64(2016), *show.Year)

	_, err = e.m.ListSeasons(ctx, episode.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	episodes, err := e.m.SeasonEpisodes(ctx, 1, seasons[0].ID)
	require.NoError(t, err)
	require.Len(t, episodes, 1)

	var renumber UpdateEpisodeRequest
	renumber.Episode.Set(3)
	renumber.Name.Set("Fartin Around")
	episode, err = e.m.UpdateEpisode(ctx, 1, episode.ID, renumber)
	require.NoError(t, err)
	assert.Equal(t, int64(3), episode.Episode)
	assert.Equal(t, "Fartin Around", episode.Name)

	var season UpdateSeasonRequest
	season.SeasonNumber.Set(2)
	updated, err := e.m.UpdateSeason(ctx, seasons[0].ID, season)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.SeasonNumber)

	require.NoError(t, e.m.DeleteEpisode(ctx, episode.ID))
	_, err = e.m.GetEpisode(ctx, 1, episode.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Nil(t, e.mediafile(t, mf.TargetFile).MediaID)

	require.NoError(t, e.m.DeleteSeason(ctx, seasons[0].ID))
	_, err = e.m.GetSeason(ctx, seasons[0].ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMediaManager_UpdateMediafile(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	_, root := e.library(t, storage.MediaTypeMovie, "Unknown Film (2001).avi")
	mf := e.mediafile(t, filepath.Join(root, "Unknown Film (2001).avi"))

	var req UpdateMediafileRequest
	req.RawName.Set("Blade Runner 2049")
	req.RawYear.Set(2017)
	got, err := e.m.UpdateMediafile(ctx, mf.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Blade Runner 2049", got.RawName)
	assert.Equal(t, int64(2017), *got.RawYear)

	var empty UpdateMediafileRequest
	empty.RawName.Set("")
	_, err = e.m.UpdateMediafile(ctx, mf.ID, empty)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = e.m.UpdateMediafile(ctx, 999, req)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = e.m.GetMediafile(ctx, 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMediaManager_Rematch(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	_, root := e.library(t, storage.MediaTypeMovie, "Blade Runner 2049 (2017).mkv")
	mf := e.mediafile(t, filepath.Join(root, "Blade Runner 2049 (2017).mkv"))
	require.NotNil(t, mf.MediaID)
	previous := *mf.MediaID

	t.Run("unknown external id", func(t *testing.T) {
		require.Eventually(t, func() bool { return e.rec.has(events.KindNewCard, previous) }, time.Second, 5*time.Millisecond)
		before := len(e.rec.messages())

		err := e.m.Rematch(ctx, RematchRequest{MediafileIDs: []int64{mf.ID}, ExternalID: "999999", MediaType: "movie"})
		assert.True(t, provider.IsNotFound(err))

		assert.Equal(t, mf, e.mediafile(t, mf.TargetFile))
		assert.Never(t, func() bool { return len(e.rec.messages()) != before }, 100*time.Millisecond, 10*time.Millisecond)
	})

	t.Run("unknown mediafile", func(t *testing.T) {
		err := e.m.Rematch(ctx, RematchRequest{MediafileIDs: []int64{999}, ExternalID: "603", MediaType: "movie"})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("media type mismatch", func(t *testing.T) {
		err := e.m.Rematch(ctx, RematchRequest{MediafileIDs: []int64{mf.ID}, ExternalID: "65798", MediaType: "tv"})
		assert.ErrorIs(t, err, matcher.ErrMediaTypeMismatch)
	})

	t.Run("rematch", func(t *testing.T) {
		require.NoError(t, e.m.Rematch(ctx, RematchRequest{MediafileIDs: []int64{mf.ID}, ExternalID: "603", MediaType: "movie"}))

		got := e.mediafile(t, mf.TargetFile)
		require.NotNil(t, got.MediaID)
		assert.NotEqual(t, previous, *got.MediaID)

		media, err := e.m.GetMedia(ctx, 1, *got.MediaID)
		require.NoError(t, err)
		assert.Equal(t, "The Matrix", media.Name)

		// the previous media is left in place
		_, err = e.m.GetMedia(ctx, 1, previous)
		assert.NoError(t, err)
	})
}

func TestMediaManager_Users(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	owner, err := e.m.Register(ctx, RegisterRequest{Credentials: Credentials{Username: "admin", Password: "hunter2"}})
	require.NoError(t, err)
	claims, err := e.auth.Verify(owner.Token)
	require.NoError(t, err)
	assert.True(t, claims.HasRole(string(storage.RoleOwner)))

	_, err = e.m.Register(ctx, RegisterRequest{Credentials: Credentials{Username: "admin", Password: "x"}})
	assert.ErrorIs(t, err, auth.ErrUsernameNotAvailable)

	_, err = e.m.Register(ctx, RegisterRequest{Credentials: Credentials{Username: "guest", Password: "x"}, InviteToken: "nope"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	invite, err := e.m.CreateInvite(ctx, claims)
	require.NoError(t, err)
	assert.NotEmpty(t, invite.Token)

	invites, err := e.m.ListInvites(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, []Invite{invite}, invites)

	guest, err := e.m.Register(ctx, RegisterRequest{Credentials: Credentials{Username: "guest", Password: "pw"}, InviteToken: invite.Token})
	require.NoError(t, err)
	guestClaims, err := e.auth.Verify(guest.Token)
	require.NoError(t, err)
	assert.False(t, guestClaims.HasRole(string(storage.RoleOwner)))

	_, err = e.m.Register(ctx, RegisterRequest{Credentials: Credentials{Username: "other", Password: "pw"}, InviteToken: invite.Token})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = e.m.CreateInvite(ctx, guestClaims)
	assert.ErrorIs(t, err, ErrPermission)
	_, err = e.m.HostSettings(ctx, guestClaims)
	assert.ErrorIs(t, err, ErrPermission)
	_, err = e.m.ListInvites(ctx, nil)
	assert.ErrorIs(t, err, auth.ErrMissing)

	token, err := e.m.Login(ctx, Credentials{Username: "guest", Password: "pw"})
	require.NoError(t, err)
	loggedIn, err := e.auth.Verify(token.Token)
	require.NoError(t, err)
	assert.Equal(t, guestClaims.UserID, loggedIn.UserID)

	_, err = e.m.Login(ctx, Credentials{Username: "guest", Password: "wrong"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = e.m.Login(ctx, Credentials{Username: "nobody", Password: "pw"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestMediaManager_Settings(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	owner, err := e.m.Register(ctx, RegisterRequest{Credentials: Credentials{Username: "admin", Password: "pw"}})
	require.NoError(t, err)
	claims, err := e.auth.Verify(owner.Token)
	require.NoError(t, err)

	prefs, err := e.m.UserSettings(ctx, claims.UserID)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(prefs))

	_, err = e.m.SetUserSettings(ctx, claims.UserID, []byte(`{"theme":"dark"}`))
	require.NoError(t, err)
	prefs, err = e.m.UserSettings(ctx, claims.UserID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"dark"}`, string(prefs))

	_, err = e.m.SetUserSettings(ctx, claims.UserID, []byte(`[1,2]`))
	assert.ErrorIs(t, err, ErrInvalidRequest)

	host, err := e.m.HostSettings(ctx, claims)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(host))

	_, err = e.m.SetHostSettings(ctx, claims, []byte(`{"port":8000}`))
	require.NoError(t, err)
	host, err = e.m.HostSettings(ctx, claims)
	require.NoError(t, err)
	assert.JSONEq(t, `{"port":8000}`, string(host))
}

type countingStreams struct {
	mu               sync.Mutex
	started, stopped int
}

func (c *countingStreams) Start(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started++
	return nil
}

func (c *countingStreams) Stop(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped++
	return nil
}

func TestMediaManager_Run(t *testing.T) {
	e := newEnv(t)
	streams := &countingStreams{}
	ran := make(chan struct{})
	m := New(e.store, StaticProviders{}, scanner.New(e.store, fakeProber{}, nil), e.auth,
		WithStreamManager(streams),
		WithSweeper(scanner.NewSweeper(e.store, "@every 1h")),
		WithRunners(RunnerFunc(func(ctx context.Context) {
			close(ran)
			<-ctx.Done()
		})),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	<-ran
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 1, streams.started)
	assert.Equal(t, 1, streams.stopped)
}

func TestStaticProviders_Unsupported(t *testing.T) {
	_, err := StaticProviders{}.For(storage.MediaTypeEpisode)
	assert.ErrorIs(t, err, matcher.ErrUnsupportedMediaType)
}
