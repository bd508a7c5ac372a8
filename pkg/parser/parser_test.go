package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(n int64) *int64 {
	return &n
}

func TestGeneral(t *testing.T) {
	tests := []struct {
		name     string
		basename string
		want     Metadata
	}{
		{
			name:     "release name with year and noise",
			basename: "Blade.Runner.2049.2017.1080p.BluRay.x264.mkv",
			want:     Metadata{Name: "Blade Runner 2049", Year: ptr(2017)},
		},
		{
			name:     "year in parens",
			basename: "The Matrix (1999).mkv",
			want:     Metadata{Name: "The Matrix", Year: ptr(1999)},
		},
		{
			name:     "title that looks like a year",
			basename: "1917.2019.1080p.WEB-DL.mp4",
			want:     Metadata{Name: "1917", Year: ptr(2019)},
		},
		{
			name:     "episode marker",
			basename: "Letterkenny.S01E02.720p.HDTV.x264.mkv",
			want:     Metadata{Name: "Letterkenny", Season: ptr(1), Episode: ptr(2)},
		},
		{
			name:     "cross episode marker",
			basename: "Show Name 2x05.mkv",
			want:     Metadata{Name: "Show Name", Season: ptr(2), Episode: ptr(5)},
		},
		{
			name:     "edition phrase is dropped",
			basename: "Blade Runner Director's Cut (1982).mkv",
			want:     Metadata{Name: "Blade Runner", Year: ptr(1982)},
		},
		{
			name:     "release group suffix",
			basename: "Dawn.of.the.Planet.of.the.Apes.2014.HDRip.XViD-EVO.mkv",
			want:     Metadata{Name: "Dawn of the Planet of the Apes", Year: ptr(2014)},
		},
		{
			name:     "fansub episode number is left to the anime extractor",
			basename: "[HorribleSubs] Kimetsu no Yaiba - 05 [1080p].mkv",
			want:     Metadata{Name: "Kimetsu no Yaiba - 05"},
		},
		{
			name:     "unknown extension is kept",
			basename: "notes.txt",
			want:     Metadata{Name: "notes txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, General(tt.basename))
		})
	}
}

func TestAnime(t *testing.T) {
	tests := []struct {
		name     string
		basename string
		want     Metadata
	}{
		{
			name:     "fansub dash episode",
			basename: "[HorribleSubs] Kimetsu no Yaiba - 05 [1080p].mkv",
			want:     Metadata{Name: "Kimetsu no Yaiba", Episode: ptr(5)},
		},
		{
			name:     "short season marker",
			basename: "Attack on Titan S2 - 03.mkv",
			want:     Metadata{Name: "Attack on Titan", Season: ptr(2), Episode: ptr(3)},
		},
		{
			name:     "ordinal season",
			basename: "Mob Psycho 100 2nd Season - 07v2.mkv",
			want:     Metadata{Name: "Mob Psycho 100", Season: ptr(2), Episode: ptr(7)},
		},
		{
			name:     "standard marker",
			basename: "Letterkenny.S03E04.mkv",
			want:     Metadata{Name: "Letterkenny", Season: ptr(3), Episode: ptr(4)},
		},
		{
			name:     "episode word",
			basename: "Cowboy Bebop Episode 12.mkv",
			want:     Metadata{Name: "Cowboy Bebop", Episode: ptr(12)},
		},
		{
			name:     "movie has no numbers",
			basename: "Blade.Runner.2049.2017.1080p.BluRay.x264.mkv",
			want:     Metadata{Name: "Blade Runner 2049 2017 1080p BluRay x264"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Anime(tt.basename))
		})
	}
}

func TestCombined(t *testing.T) {
	tests := []struct {
		name     string
		basename string
		want     Metadata
	}{
		{
			name:     "movie",
			basename: "Blade.Runner.2049.2017.1080p.BluRay.x264.mkv",
			want:     Metadata{Name: "Blade Runner 2049", Year: ptr(2017)},
		},
		{
			name:     "season defaults to one",
			basename: "[HorribleSubs] Kimetsu no Yaiba - 05 [1080p].mkv",
			want:     Metadata{Name: "Kimetsu no Yaiba", Season: ptr(1), Episode: ptr(5)},
		},
		{
			name:     "anime season wins",
			basename: "Attack on Titan S2 - 03.mkv",
			want:     Metadata{Name: "Attack on Titan", Season: ptr(2), Episode: ptr(3)},
		},
		{
			name:     "episode word",
			basename: "Cowboy Bebop Episode 12.mkv",
			want:     Metadata{Name: "Cowboy Bebop", Season: ptr(1), Episode: ptr(12)},
		},
		{
			name:     "show",
			basename: "Letterkenny.S01E02.720p.HDTV.x264.mkv",
			want:     Metadata{Name: "Letterkenny", Season: ptr(1), Episode: ptr(2)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Combined(tt.basename)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Parse(tt.basename))
		})
	}
}

func TestParseWith(t *testing.T) {
	basename := "[Group] Frieren - 12 [1080p].mkv"
	assert.Nil(t, ParseWith(StrategyAnime, basename).Season)
	assert.Equal(t, ptr(1), ParseWith(StrategyCombined, basename).Season)
	assert.Equal(t, "Frieren - 12", ParseWith(StrategyGeneral, basename).Name)
	assert.Equal(t, "Frieren", ParseWith(StrategyCombined, basename).Name)
}

func TestCandidates(t *testing.T) {
	t.Run("episode only file borrows show folder", func(t *testing.T) {
		got := Candidates("/tv", "/tv/Letterkenny/Season 1/S01E02.mkv")
		assert.Equal(t, []Metadata{{Name: "Letterkenny", Season: ptr(1), Episode: ptr(2)}}, got)
	})

	t.Run("named file keeps its own title first", func(t *testing.T) {
		got := Candidates("/tv", "/tv/Letterkenny (2016)/Season 2/Lettrkeny.S02E01.mkv")
		assert.Equal(t, []Metadata{
			{Name: "Lettrkeny", Season: ptr(2), Episode: ptr(1)},
			{Name: "Letterkenny", Year: ptr(2016), Season: ptr(2), Episode: ptr(1)},
		}, got)
	})

	t.Run("folder with same title adds nothing", func(t *testing.T) {
		got := Candidates("/movies", "/movies/Blade Runner 2049 (2017)/Blade.Runner.2049.2017.1080p.mkv")
		assert.Equal(t, []Metadata{{Name: "Blade Runner 2049", Year: ptr(2017)}}, got)
	})

	t.Run("library root is not a title", func(t *testing.T) {
		got := Candidates("/movies", "/movies/The Matrix (1999).mkv")
		assert.Equal(t, []Metadata{{Name: "The Matrix", Year: ptr(1999)}}, got)
	})
}

func TestIsVideo(t *testing.T) {
	assert.True(t, IsVideo("/a/b.MKV"))
	assert.True(t, IsVideo("b.webm"))
	assert.False(t, IsVideo("b.srt"))
	assert.False(t, IsVideo("mkv"))
}
