package server

import (
	"errors"
	"net/http"
	"time"

	"civicpulse/internal/db"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type castVoteRequest struct {
	PollID      uint `json:"pollId" binding:"required"`
	CandidateID uint `json:"candidateId" binding:"required"`
}

var castVoteMessages = bindMessages{
	"PollID":      {"required": "Poll ID and Candidate ID are required"},
	"CandidateID": {"required": "Poll ID and Candidate ID are required"},
}

// handleCastVote runs the voting preconditions in a fixed order so that each
// failure mode maps to one distinct response. The final duplicate check is
// advisory only; the unique index on (poll_id, user_id) is what actually
// holds under concurrent requests.
func (s *Server) handleCastVote(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication required. Please log in to vote.")
		return
	}

	var req castVoteRequest
	if !bindJSON(c, &req, castVoteMessages, "Poll ID and Candidate ID are required") {
		return
	}

	var poll db.Poll
	if err := s.db.First(&poll, req.PollID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "Poll not found")
			return
		}
		s.respondServerError(c, "Failed to record vote", err)
		return
	}
	if poll.Status != db.PollStatusActive {
		respondError(c, http.StatusBadRequest, "Poll is not active")
		return
	}

	now := time.Now()
	if now.Before(poll.StartDate) {
		respondError(c, http.StatusBadRequest, "Voting has not started yet")
		return
	}
	if now.After(poll.EndDate) {
		respondError(c, http.StatusBadRequest, "Voting has ended")
		return
	}

	var link db.PollCandidate
	err := s.db.Where("poll_id = ? AND candidate_id = ?", req.PollID, req.CandidateID).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "Candidate not found in this poll")
			return
		}
		s.respondServerError(c, "Failed to record vote", err)
		return
	}
	if !link.IsActive {
		respondError(c, http.StatusBadRequest, "This candidate is not active")
		return
	}

	var existing int64
	if err := s.db.Model(&db.PollResponse{}).
		Where("poll_id = ? AND user_id = ?", req.PollID, userID).
		Count(&existing).Error; err != nil {
		s.respondServerError(c, "Failed to record vote", err)
		return
	}
	if existing > 0 {
		respondError(c, http.StatusConflict, "You have already voted in this poll")
		return
	}

	vote := db.PollResponse{
		PollID:         req.PollID,
		UserID:         userID,
		CandidateID:    req.CandidateID,
		ResponseMethod: "web",
	}
	if err := s.db.Create(&vote).Error; err != nil {
		if isUniqueViolation(err) {
			respondError(c, http.StatusConflict, "You have already voted in this poll")
			return
		}
		s.respondServerError(c, "Failed to record vote", err)
		return
	}

	s.recordEvent(&req.PollID, &userID, eventVoteCast, eventPayload{
		"candidate_id": req.CandidateID,
		"method":       vote.ResponseMethod,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Vote recorded successfully",
		"vote": gin.H{
			"id":              vote.ID,
			"poll_id":         vote.PollID,
			"candidate_id":    vote.CandidateID,
			"response_method": vote.ResponseMethod,
			"created_at":      vote.CreatedAt,
		},
	})
}
