package server

import (
	"errors"
	"net/http"
	"strconv"

	"civicpulse/internal/db"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type createCandidateRequest struct {
	Name           string `json:"name" binding:"required,max=128"`
	PositionID     uint   `json:"position_id" binding:"required"`
	PartyID        *uint  `json:"party_id"`
	CountyID       *uint  `json:"county_id"`
	ConstituencyID *uint  `json:"constituency_id"`
	WardID         *uint  `json:"ward_id"`
	Age            *int   `json:"age" binding:"omitempty,gte=18,lte=120"`
	Gender         string `json:"gender" binding:"omitempty,oneof=male female other"`
	Bio            string `json:"bio" binding:"omitempty,max=5000"`
	CampaignSlogan string `json:"campaign_slogan" binding:"omitempty,max=280"`
}

type updateCandidateRequest struct {
	Name           *string `json:"name" binding:"omitempty,max=128"`
	PartyID        *uint   `json:"party_id"`
	Age            *int    `json:"age" binding:"omitempty,gte=18,lte=120"`
	Gender         *string `json:"gender" binding:"omitempty,oneof=male female other"`
	Bio            *string `json:"bio" binding:"omitempty,max=5000"`
	CampaignSlogan *string `json:"campaign_slogan" binding:"omitempty,max=280"`
}

func candidateJSON(cand db.Candidate) gin.H {
	return gin.H{
		"id":                  cand.ID,
		"name":                cand.Name,
		"position_id":         cand.PositionID,
		"party_id":            cand.PartyID,
		"county_id":           cand.CountyID,
		"constituency_id":     cand.ConstituencyID,
		"ward_id":             cand.WardID,
		"age":                 cand.Age,
		"gender":              cand.Gender,
		"bio":                 cand.Bio,
		"campaign_slogan":     cand.CampaignSlogan,
		"registration_status": cand.RegistrationStatus,
		"verification_status": cand.VerificationStatus,
		"created_at":          cand.CreatedAt,
	}
}

func (s *Server) handleListCandidates(c *gin.Context) {
	query := s.db.Model(&db.Candidate{}).Order("name ASC")
	for param, column := range map[string]string{
		"position_id":     "position_id",
		"party_id":        "party_id",
		"county_id":       "county_id",
		"constituency_id": "constituency_id",
		"ward_id":         "ward_id",
	} {
		if raw := c.Query(param); raw != "" {
			if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
				query = query.Where(column+" = ?", uint(id))
			}
		}
	}

	var candidates []db.Candidate
	if err := query.Find(&candidates).Error; err != nil {
		s.respondServerError(c, "Failed to fetch candidates", err)
		return
	}
	views := make([]gin.H, len(candidates))
	for i, cand := range candidates {
		views[i] = candidateJSON(cand)
	}
	c.JSON(http.StatusOK, gin.H{"count": len(views), "candidates": views})
}

func (s *Server) handleGetCandidate(c *gin.Context) {
	candidateID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var cand db.Candidate
	if err := s.db.First(&cand, candidateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "Candidate not found")
			return
		}
		s.respondServerError(c, "Failed to fetch candidate", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidate": candidateJSON(cand)})
}

func (s *Server) handleCreateCandidate(c *gin.Context) {
	var req createCandidateRequest
	if !bindJSON(c, &req, nil, "Name and position are required") {
		return
	}
	cand := db.Candidate{
		Name:               req.Name,
		PositionID:         req.PositionID,
		PartyID:            req.PartyID,
		CountyID:           req.CountyID,
		ConstituencyID:     req.ConstituencyID,
		WardID:             req.WardID,
		Age:                req.Age,
		Gender:             req.Gender,
		Bio:                req.Bio,
		CampaignSlogan:     req.CampaignSlogan,
		RegistrationStatus: "approved",
		VerificationStatus: "verified",
	}
	if err := s.db.Create(&cand).Error; err != nil {
		s.respondServerError(c, "Failed to create candidate", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Candidate created successfully", "candidate": candidateJSON(cand)})
}

func (s *Server) handleUpdateCandidate(c *gin.Context) {
	candidateID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req updateCandidateRequest
	if !bindJSON(c, &req, nil, "invalid candidate update") {
		return
	}

	var cand db.Candidate
	if err := s.db.First(&cand, candidateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "Candidate not found")
			return
		}
		s.respondServerError(c, "Failed to update candidate", err)
		return
	}

	if req.Name != nil {
		cand.Name = *req.Name
	}
	if req.PartyID != nil {
		cand.PartyID = req.PartyID
	}
	if req.Age != nil {
		cand.Age = req.Age
	}
	if req.Gender != nil {
		cand.Gender = *req.Gender
	}
	if req.Bio != nil {
		cand.Bio = *req.Bio
	}
	if req.CampaignSlogan != nil {
		cand.CampaignSlogan = *req.CampaignSlogan
	}

	if err := s.db.Save(&cand).Error; err != nil {
		s.respondServerError(c, "Failed to update candidate", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Candidate updated successfully", "candidate": candidateJSON(cand)})
}

func (s *Server) handleDeleteCandidate(c *gin.Context) {
	candidateID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var cand db.Candidate
	if err := s.db.First(&cand, candidateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "Candidate not found")
			return
		}
		s.respondServerError(c, "Failed to delete candidate", err)
		return
	}

	var linked int64
	if err := s.db.Model(&db.PollCandidate{}).Where("candidate_id = ?", cand.ID).Count(&linked).Error; err != nil {
		s.respondServerError(c, "Failed to delete candidate", err)
		return
	}
	if linked > 0 {
		respondError(c, http.StatusBadRequest, "Cannot delete a candidate linked to a poll")
		return
	}

	if err := s.db.Delete(&db.Candidate{}, cand.ID).Error; err != nil {
		s.respondServerError(c, "Failed to delete candidate", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Candidate deleted successfully"})
}
