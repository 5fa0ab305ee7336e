package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// startSweeper runs the idle-session sweeper on the configured schedule.
// Sessions idle past the timeout are marked ended. The returned func stops
// the scheduler.
func (s *Server) startSweeper(ctx context.Context) (func(), error) {
	schedule := s.cfg.Sessions.SweepSchedule
	if schedule == "" || s.cfg.Sessions.IdleTimeoutMinutes <= 0 {
		return func() {}, nil
	}

	idle := time.Duration(s.cfg.Sessions.IdleTimeoutMinutes) * time.Minute
	c := cron.New(cron.WithParser(cronParser))
	_, err := c.AddFunc(schedule, func() {
		swept := s.meetings.SweepIdle(time.Now().Add(-idle))
		if len(swept) > 0 {
			log.Printf("server: swept %d idle sessions: %v", len(swept), swept)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("server: sweep schedule %q: %w", schedule, err)
	}
	c.Start()

	go func() {
		<-ctx.Done()
		c.Stop()
	}()
	return func() { c.Stop() }, nil
}
