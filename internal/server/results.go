package server

import (
	"errors"
	"math"
	"net/http"
	"sort"

	"civicpulse/internal/db"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type tally struct {
	counts map[uint]int64
	total  int64
}

// pollTally derives per-candidate vote counts by scanning the response rows;
// nothing is incrementally maintained.
func (s *Server) pollTally(pollID uint) (tally, error) {
	var rows []struct {
		CandidateID uint
		Votes       int64
	}
	err := s.db.Model(&db.PollResponse{}).
		Select("candidate_id, COUNT(*) AS votes").
		Where("poll_id = ?", pollID).
		Group("candidate_id").
		Scan(&rows).Error
	if err != nil {
		return tally{}, err
	}
	result := tally{counts: make(map[uint]int64)}
	for _, row := range rows {
		result.counts[row.CandidateID] = row.Votes
		result.total += row.Votes
	}
	return result, nil
}

// percentage renders votes/total to one decimal place; an empty poll shows
// 0% for every candidate.
func percentage(votes, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(votes)/float64(total)*1000) / 10
}

func (s *Server) handleGetPollResults(c *gin.Context) {
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
		s.respondServerError(c, "Failed to fetch poll results", err)
		return
	}
	if poll.Status == db.PollStatusDraft && !isAdminRole(currentRole(c)) {
		respondError(c, http.StatusNotFound, "Poll not found")
		return
	}

	byPoll, err := s.linkedCandidates([]uint{poll.ID})
	if err != nil {
		s.respondServerError(c, "Failed to fetch poll results", err)
		return
	}
	counts, err := s.pollTally(poll.ID)
	if err != nil {
		s.respondServerError(c, "Failed to fetch poll results", err)
		return
	}

	rows := byPoll[poll.ID]
	// Rank by votes, ties broken by display order.
	sort.SliceStable(rows, func(i, j int) bool {
		vi, vj := counts.counts[rows[i].ID], counts.counts[rows[j].ID]
		if vi != vj {
			return vi > vj
		}
		return rows[i].DisplayOrder < rows[j].DisplayOrder
	})

	results := make([]gin.H, len(rows))
	for i, row := range rows {
		votes := counts.counts[row.ID]
		results[i] = gin.H{
			"candidate_id": row.ID,
			"name":         row.Name,
			"party_id":     row.PartyID,
			"vote_count":   votes,
			"percentage":   percentage(votes, counts.total),
			"rank":         i + 1,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"poll_id":     poll.ID,
		"title":       poll.Title,
		"status":      poll.Status,
		"total_votes": counts.total,
		"results":     results,
	})
}
