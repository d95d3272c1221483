package cron

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"inmuebles_console/internal/controller"
)

// InitStagingSweeper periodically reclaims editor sessions that were
// abandoned without submit or cancel, so their staged preview files do not
// accumulate.
func InitStagingSweeper(editors *controller.EditorController, ttl time.Duration) *cron.Cron {
	c := cron.New()

	_, err := c.AddFunc("@every 15m", func() {
		editors.SweepIdle(ttl)
	})
	if err != nil {
		log.Printf("Could not initialize staging sweeper cron: %v", err)
		return nil
	}

	c.Start()
	return c
}
