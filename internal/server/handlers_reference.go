package server

import (
	"net/http"

	"civicpulse/internal/db"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleListPositions(c *gin.Context) {
	var positions []db.Position
	if err := s.db.Order("id ASC").Find(&positions).Error; err != nil {
		s.respondServerError(c, "Failed to fetch positions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": positions})
}

func (s *Server) handleListParties(c *gin.Context) {
	var parties []db.Party
	if err := s.db.Order("name ASC").Find(&parties).Error; err != nil {
		s.respondServerError(c, "Failed to fetch parties", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parties": parties})
}

func (s *Server) handleListLocations(c *gin.Context) {
	var counties []db.County
	if err := s.db.Order("name ASC").Find(&counties).Error; err != nil {
		s.respondServerError(c, "Failed to fetch locations", err)
		return
	}

	constituencies := s.db.Model(&db.Constituency{}).Order("name ASC")
	if raw := c.Query("county_id"); raw != "" {
		constituencies = constituencies.Where("county_id = ?", raw)
	}
	var constituencyRows []db.Constituency
	if err := constituencies.Find(&constituencyRows).Error; err != nil {
		s.respondServerError(c, "Failed to fetch locations", err)
		return
	}

	wards := s.db.Model(&db.Ward{}).Order("name ASC")
	if raw := c.Query("constituency_id"); raw != "" {
		wards = wards.Where("constituency_id = ?", raw)
	}
	var wardRows []db.Ward
	if err := wards.Find(&wardRows).Error; err != nil {
		s.respondServerError(c, "Failed to fetch locations", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"counties":       counties,
		"constituencies": constituencyRows,
		"wards":          wardRows,
	})
}
