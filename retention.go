package main

import (
	"database/sql"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// StartRetentionScheduler starts a cron job that purges analysis runs older
// than the configured retention window. The schedule is a standard 5-field
// cron expression, e.g. "0 3 * * *" (daily at 3am).
func StartRetentionScheduler(cfg Config, db *sql.DB) *cron.Cron {
	if cfg.RetentionDays <= 0 {
		log.Println("Run retention disabled (retention_days not set)")
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(cfg.RetentionSchedule, func() {
		// UTC to match sqlite's CURRENT_TIMESTAMP rows.
		cutoff := retentionCutoff(time.Now().UTC(), cfg.RetentionDays)
		purged, err := PurgeRunsBefore(db, cutoff)
		if err != nil {
			log.Printf("retention purge error: %v", err)
			return
		}
		log.Printf("retention purge complete: removed %d runs older than %s", purged, cutoff.Format("2006-01-02"))
	})
	if err != nil {
		log.Printf("Invalid retention_schedule '%s', retention disabled: %v", cfg.RetentionSchedule, err)
		return nil
	}

	log.Printf("Run retention scheduled (cron: %s, keep %d days)", cfg.RetentionSchedule, cfg.RetentionDays)
	c.Start()
	return c
}

func retentionCutoff(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}
