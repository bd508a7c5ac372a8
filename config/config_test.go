package config

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/Dusk-Labs/dim-sub002/config/mocks"
	"github.com/spf13/viper"
	"go.uber.org/mock/gomock"
)

func TestNew(t *testing.T) {
	t.Run("fail to read in config", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cu := mocks.NewMockConfigUnmarshaler(ctrl)

		wantErr := errors.New("expected testing error")
		cu.EXPECT().ConfigFileUsed().Times(1).Return("fake-config.toml")
		cu.EXPECT().ReadInConfig().Times(1).Return(wantErr)
		c, err := New(cu)
		if !errors.Is(err, wantErr) {
			t.Errorf("TestNew() err = %v, want %v", err, wantErr)
		}

		wantConfig := Config{}
		if !reflect.DeepEqual(c, wantConfig) {
			t.Errorf("TestNew() config = %v, want %v", c, wantConfig)
		}
	})

	t.Run("fail to unmarshal", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cu := mocks.NewMockConfigUnmarshaler(ctrl)

		wantErr := errors.New("bad config")
		cu.EXPECT().ConfigFileUsed().Times(1).Return("")
		cu.EXPECT().Unmarshal(gomock.Any()).Times(1).Return(wantErr)
		_, err := New(cu)
		if !errors.Is(err, wantErr) {
			t.Errorf("TestNew() err = %v, want %v", err, wantErr)
		}
	})

	t.Run("success with file", func(t *testing.T) {
		cu := viper.New()
		cu.SetConfigFile("./testing/config.toml")
		c, err := New(cu)
		if err != nil {
			t.Errorf("TestNew() err = %v, want %v", err, nil)
		}

		wantConfig := Config{
			Server:  Server{Port: 8000},
			Storage: Storage{FilePath: "config/dim.db"},
			TMDB: TMDB{
				Scheme:     "https",
				Host:       "my-host",
				APIKey:     "my-api-key",
				MaxRetries: 3,
				Timeout:    10 * time.Second,
			},
			Auth: Auth{
				Secret:   "my-secret",
				TokenTTL: 24 * time.Hour,
			},
			Scanner: Scanner{
				Debounce:      5 * time.Second,
				ProbeWorkers:  2,
				SweepSchedule: "@every 30m",
			},
		}

		if !reflect.DeepEqual(c, wantConfig) {
			t.Errorf("TestNew() config = %+v, want %+v", c, wantConfig)
		}
	})

	t.Run("success without file", func(t *testing.T) {
		cu := viper.New()
		cu.SetConfigFile("")
		cu.SetDefault("tmdb.scheme", "https")
		cu.SetDefault("prober.path", "ffprobe")
		cu.SetDefault("log.json", true)
		c, err := New(cu)
		if err != nil {
			t.Errorf("TestNew() err = %v, want %v", err, nil)
		}

		wantConfig := Config{
			TMDB: TMDB{
				Scheme: "https",
			},
			Prober: Prober{
				Path: "ffprobe",
			},
			Log: Log{
				JSON: true,
			},
		}

		if !reflect.DeepEqual(c, wantConfig) {
			t.Errorf("TestNew() config = %+v, want %+v", c, wantConfig)
		}
	})
}
