package server

import (
	"encoding/json"
	"log/slog"

	"civicpulse/internal/db"

	"gorm.io/datatypes"
)

const (
	eventPollCreated     = "poll_created"
	eventPollStatusSet   = "poll_status_changed"
	eventPollDeleted     = "poll_deleted"
	eventVoteCast        = "vote_cast"
	eventPollsAutoClosed = "polls_auto_closed"
)

type eventPayload map[string]any

// recordEvent appends an audit row. Auditing is best effort and never fails
// the request that triggered it.
func (s *Server) recordEvent(pollID, userID *uint, eventType string, payload eventPayload) {
	if s.db == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("marshal event payload", slog.String("type", eventType), slog.Any("error", err))
		return
	}
	event := db.Event{
		PollID:  pollID,
		UserID:  userID,
		Type:    eventType,
		Payload: datatypes.JSON(data),
	}
	if err := s.db.Create(&event).Error; err != nil {
		s.log.Warn("persist event", slog.String("type", eventType), slog.Any("error", err))
	}
}
