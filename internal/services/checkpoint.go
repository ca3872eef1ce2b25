package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"auctionhouse/internal/store"
	"auctionhouse/pkg/logger"
)

// Checkpointer periodically re-saves the full snapshot. Every mutation
// already saves synchronously; this is the safety net that heals a save
// that failed mid-flight.
type Checkpointer struct {
	cron     *cron.Cron
	store    *store.Store
	interval time.Duration
	log      logger.Logger
}

func NewCheckpointer(st *store.Store, interval time.Duration, log logger.Logger) *Checkpointer {
	return &Checkpointer{
		cron:     cron.New(cron.WithSeconds()),
		store:    st,
		interval: interval,
		log:      log,
	}
}

func (c *Checkpointer) Start(ctx context.Context) error {
	c.log.Info("starting snapshot checkpointer", "interval", c.interval.String())

	_, err := c.cron.AddFunc(fmt.Sprintf("@every %s", c.interval), func() {
		if err := c.store.Checkpoint(ctx); err != nil {
			c.log.Warn("checkpoint save failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

func (c *Checkpointer) Stop() error {
	c.log.Info("stopping snapshot checkpointer")
	c.cron.Stop()
	return nil
}
