package server

import (
	"log/slog"
	"time"

	"civicpulse/internal/db"

	"github.com/robfig/cron/v3"
)

// CloseExpiredPolls transitions every active poll whose end date has passed
// to closed, in one batch update. Re-running it is harmless: a closed poll
// never matches the predicate again.
func (s *Server) CloseExpiredPolls(now time.Time) (int, error) {
	var ids []uint
	err := s.db.Model(&db.Poll{}).
		Where("status = ? AND end_date < ?", db.PollStatusActive, now).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	err = s.db.Model(&db.Poll{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"status": db.PollStatusClosed, "updated_at": now}).Error
	if err != nil {
		return 0, err
	}

	s.recordEvent(nil, nil, eventPollsAutoClosed, eventPayload{"poll_ids": ids})
	s.log.Info("closed expired polls", slog.Int("count", len(ids)))
	return len(ids), nil
}

// StartSweeper runs the expiry sweep once immediately and then on the
// configured cron schedule. A failed cycle is logged and left for the next
// run; there is no retry.
func (s *Server) StartSweeper() error {
	sweep := func() {
		if _, err := s.CloseExpiredPolls(time.Now().UTC()); err != nil {
			s.log.Error("expiry sweep failed", slog.Any("error", err))
		}
	}

	c := cron.New()
	if _, err := c.AddFunc(s.cfg.SweepSchedule, sweep); err != nil {
		return err
	}
	sweep()
	c.Start()
	s.sweeper = c
	return nil
}

// StopSweeper stops the schedule and waits for an in-flight sweep to finish.
func (s *Server) StopSweeper() {
	if s.sweeper != nil {
		<-s.sweeper.Stop().Done()
		s.sweeper = nil
	}
}
