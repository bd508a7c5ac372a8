// Package providertest is an in-memory metadata provider for tests
package providertest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Dusk-Labs/dim-sub002/pkg/provider"
)

// Fake answers from fixed tables. Titles are matched case-insensitively and years are ignored
// unless YearStrict is set.
type Fake struct {
	mu         sync.Mutex
	byTitle    map[string][]provider.ExternalMedia
	byID       map[string]provider.ExternalMedia
	seasons    map[string][]provider.ExternalSeason
	episodes   map[string][]provider.ExternalEpisode
	searches   []string
	YearStrict bool
	Err        error
}

var _ provider.TvProvider = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		byTitle:  map[string][]provider.ExternalMedia{},
		byID:     map[string]provider.ExternalMedia{},
		seasons:  map[string][]provider.ExternalSeason{},
		episodes: map[string][]provider.ExternalEpisode{},
	}
}

// Add registers media under its own title and any extra search titles
func (f *Fake) Add(media provider.ExternalMedia, titles ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()

	titles = append([]string{media.Title}, titles...)
	for _, t := range titles {
		key := strings.ToLower(t)
		f.byTitle[key] = append(f.byTitle[key], media)
	}
	f.byID[media.ExternalID] = media
	return f
}

func (f *Fake) AddSeasons(externalID string, seasons ...provider.ExternalSeason) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seasons[externalID] = append(f.seasons[externalID], seasons...)
	return f
}

func (f *Fake) AddEpisodes(externalID string, season int64, episodes ...provider.ExternalEpisode) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := episodeKey(externalID, season)
	f.episodes[key] = append(f.episodes[key], episodes...)
	return f
}

// Searches returns the titles searched so far
func (f *Fake) Searches() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.searches...)
}

func (f *Fake) Search(_ context.Context, title string, year *int64) ([]provider.ExternalMedia, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.searches = append(f.searches, title)
	if f.Err != nil {
		return nil, f.Err
	}

	var out []provider.ExternalMedia
	for _, m := range f.byTitle[strings.ToLower(title)] {
		if f.YearStrict && year != nil && (m.Year() == nil || *m.Year() != *year) {
			continue
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, provider.ErrNoResults
	}
	return out, nil
}

func (f *Fake) SearchByID(_ context.Context, externalID string) (provider.ExternalMedia, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return provider.ExternalMedia{}, f.Err
	}
	m, ok := f.byID[externalID]
	if !ok {
		return provider.ExternalMedia{}, &provider.RemoteAPIError{Code: 404, Message: "not found"}
	}
	return m, nil
}

func (f *Fake) Cast(context.Context, string) ([]provider.ExternalActor, error) {
	return []provider.ExternalActor{}, nil
}

func (f *Fake) SeasonsForID(_ context.Context, externalID string) ([]provider.ExternalSeason, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	seasons, ok := f.seasons[externalID]
	if !ok {
		return nil, provider.ErrNoSeasonsFound
	}
	return seasons, nil
}

func (f *Fake) EpisodesForSeason(_ context.Context, externalID string, season int64) ([]provider.ExternalEpisode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	episodes, ok := f.episodes[episodeKey(externalID, season)]
	if !ok {
		return nil, provider.ErrNoEpisodesFound
	}
	return episodes, nil
}

func episodeKey(externalID string, season int64) string {
	return fmt.Sprintf("%s/%d", externalID, season)
}
