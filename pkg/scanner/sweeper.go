package scanner

import (
	"context"

	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultSweepSchedule = "@every 1h"

// removing a show's last episode can orphan its seasons and then the show
const maxSweepPasses = 3

// Sweeper periodically deletes media that no mediafile renders any more
type Sweeper struct {
	store    storage.Storage
	schedule string
	cron     *cron.Cron
}

func NewSweeper(store storage.Storage, schedule string) *Sweeper {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	return &Sweeper{
		store:    store,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Run sweeps on the schedule until ctx ends
func (s *Sweeper) Run(ctx context.Context) error {
	log := logger.FromCtx(ctx, "component", "sweeper")

	_, err := s.cron.AddFunc(s.schedule, func() {
		n, err := s.Sweep(ctx)
		if err != nil {
			log.Errorw("orphan sweep failed", zap.Error(err))
			return
		}
		if n > 0 {
			log.Infow("swept orphan media", "count", n)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}

// Sweep deletes orphan media and empty seasons and returns how many media were removed
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	removed := 0
	for pass := 0; pass < maxSweepPasses; pass++ {
		n := 0
		err := s.store.WithWriteTx(ctx, func(tx storage.Tx) error {
			orphans, err := tx.ListOrphanMedia(ctx)
			if err != nil {
				return err
			}
			for _, m := range orphans {
				if err := tx.DeleteMedia(ctx, m.ID); err != nil {
					return err
				}
				n++
			}
			_, err = tx.DeleteEmptySeasons(ctx)
			return err
		})
		if err != nil {
			return removed, err
		}
		removed += n
		if n == 0 {
			break
		}
	}
	return removed, nil
}
