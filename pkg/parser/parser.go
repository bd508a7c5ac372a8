package parser

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	ptn "github.com/razsteinmetz/go-ptn"
)

// Metadata is what a file name says about the media it holds
type Metadata struct {
	Name    string `json:"name"`
	Year    *int64 `json:"year,omitempty"`
	Season  *int64 `json:"season,omitempty"`
	Episode *int64 `json:"episode,omitempty"`
}

// HasEpisode reports whether both season and episode are known
func (m Metadata) HasEpisode() bool {
	return m.Season != nil && m.Episode != nil
}

type Strategy string

const (
	StrategyGeneral  Strategy = "general"
	StrategyAnime    Strategy = "anime"
	StrategyCombined Strategy = "combined"
)

// VideoExtensions are the file extensions treated as media, without the dot
var VideoExtensions = map[string]bool{
	"mp4":  true,
	"mkv":  true,
	"avi":  true,
	"webm": true,
}

// IsVideo reports whether path has a known video extension
func IsVideo(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return VideoExtensions[ext]
}

// Parse runs the combined strategy
func Parse(basename string) Metadata {
	return Combined(basename)
}

func ParseWith(strategy Strategy, basename string) Metadata {
	switch strategy {
	case StrategyGeneral:
		return General(basename)
	case StrategyAnime:
		return Anime(basename)
	default:
		return Combined(basename)
	}
}

// Combined takes the title and year from the general extractor and the season and
// episode from the anime extractor. Season defaults to 1 when only an episode is found.
func Combined(basename string) Metadata {
	general := General(basename)
	anime := Anime(basename)

	m := Metadata{
		Name:    general.Name,
		Year:    general.Year,
		Season:  anime.Season,
		Episode: anime.Episode,
	}
	// the general extractor leaves fansub episode numbers such as "Title - 05" in the title
	if m.Name == "" || (general.Episode == nil && anime.Episode != nil && anime.Name != "") {
		m.Name = anime.Name
	}
	if m.Episode == nil {
		m.Season, m.Episode = general.Season, general.Episode
	}
	if m.Episode != nil && m.Season == nil {
		one := int64(1)
		m.Season = &one
	}
	return m
}

// Candidates returns the metadata guesses for a file below root, best first. Files named
// only by their episode, like "Show/Season 1/S01E02.mkv", borrow the title from the folders above.
func Candidates(root, path string) []Metadata {
	base := filepath.Base(path)
	primary := Parse(base)
	candidates := []Metadata{primary}

	root = filepath.Clean(root)
	dir := filepath.Dir(path)
	for i := 0; i < 2 && dir != root && strings.HasPrefix(dir, root); i++ {
		folder := filepath.Base(dir)
		dir = filepath.Dir(dir)
		if seasonFolderRx.MatchString(folder) {
			continue
		}

		parent := General(folder)
		if parent.Name == "" || strings.EqualFold(parent.Name, primary.Name) {
			break
		}

		c := primary
		c.Name = parent.Name
		if c.Year == nil {
			c.Year = parent.Year
		}
		if primary.Name == "" || episodeOnlyRx.MatchString(strings.TrimSpace(stripExt(base))) {
			candidates = append([]Metadata{c}, candidates...)
		} else {
			candidates = append(candidates, c)
		}
		break
	}

	out := candidates[:0]
	for _, c := range candidates {
		if c.Name != "" {
			out = append(out, c)
		}
	}
	return out
}

var (
	yearInParensRx = regexp.MustCompile(`[\(\[]((?:19|20)\d{2})[\)\]]`)
	bracketRx      = regexp.MustCompile(`\{[^}]*\}|\[[^\]]*\]`)
	spacesRx       = regexp.MustCompile(`\s+`)

	editionPhraseRx = regexp.MustCompile(`(?i)\b(` +
		`director'?s?\s*cut|final\s+cut|extended\s+cut|theatrical\s+cut|unrated\s+cut|` +
		`anniversary\s+edition|collector'?s?\s+edition|special\s+edition|extended\s+edition` +
		`)\b`)

	seasonFolderRx = regexp.MustCompile(`(?i)^(?:season|series|s)[\s._-]*\d{1,4}$|^specials$`)
	episodeOnlyRx  = regexp.MustCompile(`(?i)^(?:S\d{1,4})?\s*E(?:p(?:isode)?)?[\s._-]*\d{1,4}$|^\d{1,3}$`)
)

// General extracts a release title and year, and any SxxEyy or 2x05 style episode marker,
// using the torrent name parser. Edition phrases are dropped from the title first.
func General(basename string) Metadata {
	var m Metadata
	name := editionPhraseRx.ReplaceAllString(stripExt(basename), " ")
	name = strings.TrimSpace(spacesRx.ReplaceAllString(name, " "))

	info, err := ptn.Parse(name)
	if err != nil {
		return m
	}

	m.Name = info.Title
	if info.Year > 0 {
		m.Year = int64Ptr(info.Year)
	}
	// a season marker without an episode is usually part of the title, as in "Se7en"
	if info.Episode > 0 {
		m.Season = int64Ptr(info.Season)
		m.Episode = int64Ptr(info.Episode)
	}
	return m
}

func int64Ptr(n int) *int64 {
	v := int64(n)
	return &v
}

var animePatterns = []struct {
	rx            *regexp.Regexp
	season, epiNo int
}{
	{regexp.MustCompile(`(?i)(?:^|[\s._-])S(\d{1,4})\s*E(\d{1,4})`), 1, 2},
	{regexp.MustCompile(`(?i)(?:^|[\s._-])Season\s*(\d{1,4})\s*Episode\s*(\d{1,4})`), 1, 2},
	{regexp.MustCompile(`(?i)(?:^|[\s._-])(\d{1,2})x(\d{1,3})(?:[\s._-]|$)`), 1, 2},
	{regexp.MustCompile(`(?i)(?:^|[\s._-])S(\d{1,2})\s+-\s+(\d{1,4})(?:v\d)?(?:\s|$)`), 1, 2},
	{regexp.MustCompile(`(?i)(?:^|\s)(\d{1,2})(?:st|nd|rd|th)\s+Season\s+-\s+(\d{1,4})(?:v\d)?(?:\s|$)`), 1, 2},
	{regexp.MustCompile(`\s-\s(\d{1,4})(?:v\d)?(?:\s|$)`), 0, 1},
	{regexp.MustCompile(`(?i)(?:^|[\s._-])E(?:p(?:isode)?)?[\s.]*(\d{1,4})(?:v\d)?(?:[\s._-]|$)`), 0, 1},
}

// Anime extracts season and episode numbers from fansub style names such as
// "[Group] Title - 05 [1080p]" or "Title S2 - 05". The season stays unknown
// when the name only numbers the episode.
func Anime(basename string) Metadata {
	var m Metadata
	name := stripExt(basename)
	name = bracketRx.ReplaceAllString(name, " ")
	name = strings.NewReplacer("_", " ").Replace(name)
	name = strings.TrimSpace(spacesRx.ReplaceAllString(name, " "))

	for _, p := range animePatterns {
		loc := p.rx.FindStringSubmatchIndex(name)
		if loc == nil {
			continue
		}
		if p.season > 0 {
			m.Season = parseInt(name[loc[2*p.season]:loc[2*p.season+1]])
		}
		m.Episode = parseInt(name[loc[2*p.epiNo]:loc[2*p.epiNo+1]])
		name = name[:loc[0]]
		break
	}

	name = yearInParensRx.ReplaceAllString(name, " ")
	name = strings.ReplaceAll(name, ".", " ")
	m.Name = strings.Trim(strings.TrimSpace(spacesRx.ReplaceAllString(name, " ")), "-")
	m.Name = strings.TrimSpace(m.Name)
	return m
}

func stripExt(basename string) string {
	ext := filepath.Ext(basename)
	if ext != "" && VideoExtensions[strings.ToLower(ext[1:])] {
		return strings.TrimSuffix(basename, ext)
	}
	return basename
}

func parseInt(s string) *int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}
