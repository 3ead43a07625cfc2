package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"civicpulse/internal/db"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type createIssueRequest struct {
	Title        string `json:"title" binding:"required,max=200"`
	Description  string `json:"description" binding:"required,max=5000"`
	CategoryID   uint   `json:"category_id" binding:"required"`
	Constituency string `json:"constituency" binding:"omitempty,max=64"`
	Ward         string `json:"ward" binding:"omitempty,max=64"`
	IsAnonymous  bool   `json:"is_anonymous"`
}

type addCommentRequest struct {
	CommentText string `json:"comment_text" binding:"required,max=2000"`
}

var createIssueMessages = bindMessages{
	"Title":       {"required": "Title, description, and category are required"},
	"Description": {"required": "Title, description, and category are required"},
	"CategoryID":  {"required": "Title, description, and category are required"},
}

func issueJSON(issue db.Issue) gin.H {
	return gin.H{
		"id":                   issue.ID,
		"title":                issue.Title,
		"description":          issue.Description,
		"category_id":          issue.CategoryID,
		"location_description": issue.LocationDescription,
		"is_anonymous":         issue.IsAnonymous,
		"status":               issue.Status,
		"priority":             issue.Priority,
		"upvotes_count":        issue.UpvotesCount,
		"views_count":          issue.ViewsCount,
		"comments_count":       issue.CommentsCount,
		"admin_response":       issue.AdminResponse,
		"admin_response_at":    issue.AdminResponseAt,
		"resolved_at":          issue.ResolvedAt,
		"created_at":           issue.CreatedAt,
		"updated_at":           issue.UpdatedAt,
	}
}

func (s *Server) handleListCategories(c *gin.Context) {
	var categories []db.IssueCategory
	if err := s.db.Order("name ASC").Find(&categories).Error; err != nil {
		s.respondServerError(c, "Failed to fetch categories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (s *Server) handleListIssues(c *gin.Context) {
	query := s.db.Model(&db.Issue{}).Order("created_at DESC")

	if raw := c.Query("category_id"); raw != "" && raw != "all" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			query = query.Where("category_id = ?", uint(id))
		}
	}
	if status := c.Query("status"); status != "" && status != "all" {
		query = query.Where("status = ?", status)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", pattern, pattern)
	}

	page, perPage := parsePagination(c, 20, 100)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		s.respondServerError(c, "Failed to fetch issues", err)
		return
	}

	var issues []db.Issue
	if err := query.Offset((page - 1) * perPage).Limit(perPage).Find(&issues).Error; err != nil {
		s.respondServerError(c, "Failed to fetch issues", err)
		return
	}

	views := make([]gin.H, len(issues))
	for i, issue := range issues {
		views[i] = issueJSON(issue)
	}
	c.JSON(http.StatusOK, gin.H{
		"issues":     views,
		"pagination": paginationMeta(page, perPage, total),
	})
}

func (s *Server) handleGetIssue(c *gin.Context) {
	issueID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var issue db.Issue
	if err := s.db.First(&issue, issueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "Issue not found")
			return
		}
		s.respondServerError(c, "Failed to fetch issue", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issue": issueJSON(issue)})
}

func (s *Server) handleCreateIssue(c *gin.Context) {
	var req createIssueRequest
	if !bindJSON(c, &req, createIssueMessages, "Title, description, and category are required") {
		return
	}

	var category db.IssueCategory
	if err := s.db.First(&category, req.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusBadRequest, "Unknown category")
			return
		}
		s.respondServerError(c, "Failed to create issue", err)
		return
	}

	location := strings.TrimSpace(req.Constituency)
	if ward := strings.TrimSpace(req.Ward); ward != "" && location != "" {
		location = ward + ", " + location
	}

	issue := db.Issue{
		Title:               strings.TrimSpace(req.Title),
		Description:         strings.TrimSpace(req.Description),
		CategoryID:          req.CategoryID,
		LocationDescription: location,
		IsAnonymous:         req.IsAnonymous,
		Status:              db.IssueStatusSubmitted,
		Priority:            "medium",
	}
	if !req.IsAnonymous {
		if userID, ok := currentUserID(c); ok {
			issue.UserID = &userID
		}
	}
	if err := s.db.Create(&issue).Error; err != nil {
		s.respondServerError(c, "Failed to create issue", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"issue": issueJSON(issue), "id": issue.ID})
}

// handleToggleUpvote flips the caller's upvote; the denormalized counter is
// kept in the same transaction as the upvote row.
func (s *Server) handleToggleUpvote(c *gin.Context) {
	issueID, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID, _ := currentUserID(c)

	var issue db.Issue
	if err := s.db.First(&issue, issueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "Issue not found")
			return
		}
		s.respondServerError(c, "Failed to toggle upvote", err)
		return
	}

	upvoted := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing db.IssueUpvote
		err := tx.Where("issue_id = ? AND user_id = ?", issueID, userID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&db.IssueUpvote{}, existing.ID).Error; err != nil {
				return err
			}
			return tx.Model(&db.Issue{}).Where("id = ? AND upvotes_count > 0", issueID).
				UpdateColumn("upvotes_count", gorm.Expr("upvotes_count - 1")).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			upvote := db.IssueUpvote{IssueID: issueID, UserID: userID}
			if err := tx.Create(&upvote).Error; err != nil {
				if isUniqueViolation(err) {
					return nil
				}
				return err
			}
			upvoted = true
			return tx.Model(&db.Issue{}).Where("id = ?", issueID).
				UpdateColumn("upvotes_count", gorm.Expr("upvotes_count + 1")).Error
		default:
			return err
		}
	})
	if err != nil {
		s.respondServerError(c, "Failed to toggle upvote", err)
		return
	}

	var count int64
	if err := s.db.Model(&db.IssueUpvote{}).Where("issue_id = ?", issueID).Count(&count).Error; err != nil {
		s.respondServerError(c, "Failed to toggle upvote", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upvoted": upvoted, "upvotes_count": count})
}

func (s *Server) handleListComments(c *gin.Context) {
	issueID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var rows []struct {
		ID          uint
		IssueID     uint
		UserID      uint
		CommentText string
		CreatedAt   time.Time
		FullName    string
	}
	err := s.db.Table("issue_comments").
		Select("issue_comments.id, issue_comments.issue_id, issue_comments.user_id, "+
			"issue_comments.comment_text, issue_comments.created_at, users.full_name").
		Joins("JOIN users ON users.id = issue_comments.user_id").
		Where("issue_comments.issue_id = ?", issueID).
		Order("issue_comments.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		s.respondServerError(c, "Failed to fetch comments", err)
		return
	}

	comments := make([]gin.H, len(rows))
	for i, row := range rows {
		comments[i] = gin.H{
			"id":           row.ID,
			"issue_id":     row.IssueID,
			"comment_text": row.CommentText,
			"created_at":   row.CreatedAt,
			"user": gin.H{
				"id":        row.UserID,
				"full_name": row.FullName,
			},
		}
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

func (s *Server) handleAddComment(c *gin.Context) {
	issueID, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID, _ := currentUserID(c)

	var req addCommentRequest
	if !bindJSON(c, &req, nil, "Comment text is required") {
		return
	}
	text := strings.TrimSpace(req.CommentText)
	if text == "" {
		respondError(c, http.StatusBadRequest, "Comment text is required")
		return
	}

	var issue db.Issue
	if err := s.db.First(&issue, issueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "Issue not found")
			return
		}
		s.respondServerError(c, "Failed to add comment", err)
		return
	}

	comment := db.IssueComment{IssueID: issueID, UserID: userID, CommentText: text}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&db.Issue{}).Where("id = ?", issueID).
			UpdateColumn("comments_count", gorm.Expr("comments_count + 1")).Error
	})
	if err != nil {
		s.respondServerError(c, "Failed to add comment", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": gin.H{
		"id":           comment.ID,
		"issue_id":     comment.IssueID,
		"comment_text": comment.CommentText,
		"created_at":   comment.CreatedAt,
	}})
}

func (s *Server) handleIncrementView(c *gin.Context) {
	issueID, ok := parseIDParam(c)
	if !ok {
		return
	}
	result := s.db.Model(&db.Issue{}).Where("id = ?", issueID).
		UpdateColumn("views_count", gorm.Expr("views_count + 1"))
	if result.Error != nil {
		s.respondServerError(c, "Failed to increment view", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, "Issue not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "View recorded"})
}
