package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"civicpulse/internal/db"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type pollCandidateInput struct {
	Name    string `json:"name" binding:"required,max=128"`
	PartyID *uint  `json:"party_id"`
	Age     *int   `json:"age" binding:"omitempty,gte=18,lte=120"`
	Gender  string `json:"gender" binding:"omitempty,oneof=male female other"`
	Bio     string `json:"bio" binding:"omitempty,max=5000"`
	Slogan  string `json:"slogan" binding:"omitempty,max=280"`
}

type createPollRequest struct {
	Title          string               `json:"title" binding:"required,max=200"`
	Description    string               `json:"description" binding:"omitempty,max=5000"`
	PositionID     uint                 `json:"position_id" binding:"required"`
	CountyID       *uint                `json:"county_id"`
	ConstituencyID *uint                `json:"constituency_id"`
	WardID         *uint                `json:"ward_id"`
	StartDate      time.Time            `json:"start_date" binding:"required"`
	EndDate        time.Time            `json:"end_date" binding:"required"`
	Candidates     []pollCandidateInput `json:"candidates" binding:"required,min=2,dive"`
}

type updatePollStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=draft active closed"`
}

var createPollMessages = bindMessages{
	"Title":      {"required": "Title, start date, and end date are required"},
	"StartDate":  {"required": "Title, start date, and end date are required"},
	"EndDate":    {"required": "Title, start date, and end date are required"},
	"PositionID": {"required": "Position is required (select Governor, Senator, MP, etc.)"},
	"Candidates": {
		"required": "At least 2 candidates are required",
		"min":      "At least 2 candidates are required",
	},
}

// pollCandidateRow is a candidate joined with its poll link.
type pollCandidateRow struct {
	ID             uint
	Name           string
	PositionID     uint
	PartyID        *uint
	Age            *int
	Gender         string
	Bio            string
	CampaignSlogan string
	PollID         uint
	DisplayOrder   int
	IsActive       bool
}

func pollJSON(p db.Poll) gin.H {
	return gin.H{
		"id":              p.ID,
		"title":           p.Title,
		"description":     p.Description,
		"position_id":     p.PositionID,
		"county_id":       p.CountyID,
		"constituency_id": p.ConstituencyID,
		"ward_id":         p.WardID,
		"start_date":      p.StartDate,
		"end_date":        p.EndDate,
		"status":          p.Status,
		"created_by":      p.CreatedBy,
		"created_at":      p.CreatedAt,
		"updated_at":      p.UpdatedAt,
	}
}

func candidateRowJSON(row pollCandidateRow) gin.H {
	return gin.H{
		"id":              row.ID,
		"name":            row.Name,
		"position_id":     row.PositionID,
		"party_id":        row.PartyID,
		"age":             row.Age,
		"gender":          row.Gender,
		"bio":             row.Bio,
		"campaign_slogan": row.CampaignSlogan,
		"display_order":   row.DisplayOrder,
		"is_active":       row.IsActive,
	}
}

// linkedCandidates loads the candidates joined to each of the given polls,
// ordered by display order.
func (s *Server) linkedCandidates(pollIDs []uint) (map[uint][]pollCandidateRow, error) {
	result := make(map[uint][]pollCandidateRow)
	if len(pollIDs) == 0 {
		return result, nil
	}
	var rows []pollCandidateRow
	err := s.db.Table("poll_candidates").
		Select("candidates.id, candidates.name, candidates.position_id, candidates.party_id, "+
			"candidates.age, candidates.gender, candidates.bio, candidates.campaign_slogan, "+
			"poll_candidates.poll_id, poll_candidates.display_order, poll_candidates.is_active").
		Joins("JOIN candidates ON candidates.id = poll_candidates.candidate_id").
		Where("poll_candidates.poll_id IN ?", pollIDs).
		Order("poll_candidates.poll_id, poll_candidates.display_order").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.PollID] = append(result[row.PollID], row)
	}
	return result, nil
}

func (s *Server) handleCreatePoll(c *gin.Context) {
	var req createPollRequest
	if !bindJSON(c, &req, createPollMessages, "invalid poll") {
		return
	}
	if !req.EndDate.After(req.StartDate) {
		respondError(c, http.StatusBadRequest, "End date must be after start date")
		return
	}

	userID, _ := currentUserID(c)
	poll := db.Poll{
		Title:          req.Title,
		Description:    req.Description,
		PositionID:     req.PositionID,
		CountyID:       req.CountyID,
		ConstituencyID: req.ConstituencyID,
		WardID:         req.WardID,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Status:         db.PollStatusDraft,
		CreatedBy:      userID,
	}
	candidates := make([]db.Candidate, len(req.Candidates))

	// Poll, candidates and links land together or not at all.
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&poll).Error; err != nil {
			return err
		}
		for i, in := range req.Candidates {
			candidates[i] = db.Candidate{
				Name:               in.Name,
				PositionID:         req.PositionID,
				PartyID:            in.PartyID,
				CountyID:           req.CountyID,
				ConstituencyID:     req.ConstituencyID,
				WardID:             req.WardID,
				Age:                in.Age,
				Gender:             in.Gender,
				Bio:                in.Bio,
				CampaignSlogan:     in.Slogan,
				RegistrationStatus: "approved",
				VerificationStatus: "verified",
			}
			if err := tx.Create(&candidates[i]).Error; err != nil {
				return err
			}
			link := db.PollCandidate{
				PollID:       poll.ID,
				CandidateID:  candidates[i].ID,
				DisplayOrder: i,
				IsActive:     true,
			}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.respondServerError(c, "Failed to create poll", err)
		return
	}

	s.recordEvent(&poll.ID, &userID, eventPollCreated, eventPayload{
		"title":      poll.Title,
		"candidates": len(candidates),
	})

	candidateViews := make([]gin.H, len(candidates))
	for i, cand := range candidates {
		candidateViews[i] = candidateRowJSON(pollCandidateRow{
			ID:             cand.ID,
			Name:           cand.Name,
			PositionID:     cand.PositionID,
			PartyID:        cand.PartyID,
			Age:            cand.Age,
			Gender:         cand.Gender,
			Bio:            cand.Bio,
			CampaignSlogan: cand.CampaignSlogan,
			DisplayOrder:   i,
			IsActive:       true,
		})
	}
	view := pollJSON(poll)
	view["candidates"] = candidateViews
	c.JSON(http.StatusCreated, gin.H{
		"message": "Poll created successfully",
		"poll":    view,
	})
}

func (s *Server) handleListPolls(c *gin.Context) {
	query := s.db.Model(&db.Poll{}).Order("created_at DESC")

	// Drafts stay invisible outside the admin console.
	if isAdminRole(currentRole(c)) {
		if status := c.Query("status"); status != "" {
			if status != db.PollStatusDraft && status != db.PollStatusActive && status != db.PollStatusClosed {
				respondError(c, http.StatusBadRequest, "Status must be one of: draft, active, closed")
				return
			}
			query = query.Where("status = ?", status)
		}
	} else {
		query = query.Where("status IN ?", []string{db.PollStatusActive, db.PollStatusClosed})
	}
	if raw := c.Query("position_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			query = query.Where("position_id = ?", uint(id))
		}
	}

	var polls []db.Poll
	if err := query.Find(&polls).Error; err != nil {
		s.respondServerError(c, "Failed to fetch polls", err)
		return
	}

	ids := make([]uint, len(polls))
	for i, p := range polls {
		ids[i] = p.ID
	}
	byPoll, err := s.linkedCandidates(ids)
	if err != nil {
		s.respondServerError(c, "Failed to fetch polls", err)
		return
	}

	views := make([]gin.H, len(polls))
	for i, p := range polls {
		view := pollJSON(p)
		rows := byPoll[p.ID]
		candidateViews := make([]gin.H, len(rows))
		for j, row := range rows {
			candidateViews[j] = candidateRowJSON(row)
		}
		view["candidates"] = candidateViews
		views[i] = view
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) handleGetPoll(c *gin.Context) {
	pollID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var poll db.Poll
	if err := s.db.First(&poll, pollID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "Poll not found")
			return
		}
		s.respondServerError(c, "Failed to fetch poll", err)
		return
	}

	byPoll, err := s.linkedCandidates([]uint{poll.ID})
	if err != nil {
		s.respondServerError(c, "Failed to fetch poll", err)
		return
	}
	tally, err := s.pollTally(poll.ID)
	if err != nil {
		s.respondServerError(c, "Failed to fetch poll", err)
		return
	}

	hasVoted := false
	if userID, ok := currentUserID(c); ok {
		var count int64
		if err := s.db.Model(&db.PollResponse{}).
			Where("poll_id = ? AND user_id = ?", poll.ID, userID).
			Count(&count).Error; err != nil {
			s.respondServerError(c, "Failed to fetch poll", err)
			return
		}
		hasVoted = count > 0
	}

	rows := byPoll[poll.ID]
	candidateViews := make([]gin.H, len(rows))
	for i, row := range rows {
		view := candidateRowJSON(row)
		view["vote_count"] = tally.counts[row.ID]
		candidateViews[i] = view
	}

	view := pollJSON(poll)
	view["candidates"] = candidateViews
	view["total_votes"] = tally.total
	view["has_voted"] = hasVoted
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleUpdatePollStatus(c *gin.Context) {
	pollID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req updatePollStatusRequest
	if !bindJSON(c, &req, nil, "Status must be one of: draft, active, closed") {
		return
	}

	var poll db.Poll
	if err := s.db.First(&poll, pollID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "Poll not found")
			return
		}
		s.respondServerError(c, "Failed to update poll status", err)
		return
	}

	if !canTransition(poll.Status, req.Status) {
		respondError(c, http.StatusBadRequest,
			fmt.Sprintf("Cannot change poll status from %s to %s", poll.Status, req.Status))
		return
	}
	if req.Status == db.PollStatusActive {
		var linked int64
		if err := s.db.Model(&db.PollCandidate{}).
			Where("poll_id = ? AND is_active = ?", poll.ID, true).
			Count(&linked).Error; err != nil {
			s.respondServerError(c, "Failed to update poll status", err)
			return
		}
		if linked < 2 {
			respondError(c, http.StatusBadRequest, "Poll needs at least 2 active candidates to activate")
			return
		}
	}

	previous := poll.Status
	poll.Status = req.Status
	poll.UpdatedAt = time.Now().UTC()
	if err := s.db.Model(&db.Poll{}).Where("id = ?", poll.ID).
		Updates(map[string]any{"status": poll.Status, "updated_at": poll.UpdatedAt}).Error; err != nil {
		s.respondServerError(c, "Failed to update poll status", err)
		return
	}

	userID, _ := currentUserID(c)
	s.recordEvent(&poll.ID, &userID, eventPollStatusSet, eventPayload{
		"from": previous,
		"to":   poll.Status,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Poll status updated successfully",
		"poll":    pollJSON(poll),
	})
}

// canTransition encodes the monotonic poll lifecycle; closed is terminal.
func canTransition(from, to string) bool {
	switch from {
	case db.PollStatusDraft:
		return to == db.PollStatusActive
	case db.PollStatusActive:
		return to == db.PollStatusClosed
	default:
		return false
	}
}

func (s *Server) handleDeletePoll(c *gin.Context) {
	pollID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var poll db.Poll
	if err := s.db.First(&poll, pollID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "Poll not found")
			return
		}
		s.respondServerError(c, "Failed to delete poll", err)
		return
	}

	var votes int64
	if err := s.db.Model(&db.PollResponse{}).Where("poll_id = ?", poll.ID).Count(&votes).Error; err != nil {
		s.respondServerError(c, "Failed to delete poll", err)
		return
	}
	if votes > 0 {
		respondError(c, http.StatusBadRequest, "Cannot delete a poll that has votes")
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var candidateIDs []uint
		if err := tx.Model(&db.PollCandidate{}).
			Where("poll_id = ?", poll.ID).
			Pluck("candidate_id", &candidateIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("poll_id = ?", poll.ID).Delete(&db.PollCandidate{}).Error; err != nil {
			return err
		}
		if len(candidateIDs) > 0 {
			if err := tx.Where("id IN ?", candidateIDs).Delete(&db.Candidate{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&db.Poll{}, poll.ID).Error
	})
	if err != nil {
		s.respondServerError(c, "Failed to delete poll", err)
		return
	}

	userID, _ := currentUserID(c)
	s.recordEvent(&pollID, &userID, eventPollDeleted, eventPayload{"title": poll.Title})

	c.JSON(http.StatusOK, gin.H{"message": "Poll deleted successfully"})
}
