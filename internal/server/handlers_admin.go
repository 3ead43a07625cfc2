package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"civicpulse/internal/db"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type updateIssueStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=submitted 'under review' 'in progress' resolved rejected"`
}

type adminResponseRequest struct {
	Response string `json:"response" binding:"required,max=5000"`
}

type updateIssuePriorityRequest struct {
	Priority string `json:"priority" binding:"required,oneof=low medium high urgent"`
}

type updateUserRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=voter admin"`
}

func (s *Server) handleAdminStats(c *gin.Context) {
	var statuses []string
	if err := s.db.Model(&db.Issue{}).Pluck("status", &statuses).Error; err != nil {
		s.respondServerError(c, "Failed to fetch statistics", err)
		return
	}

	statusCounts := map[string]int{
		db.IssueStatusSubmitted:   0,
		db.IssueStatusUnderReview: 0,
		db.IssueStatusInProgress:  0,
		db.IssueStatusResolved:    0,
		db.IssueStatusRejected:    0,
	}
	for _, status := range statuses {
		if _, ok := statusCounts[status]; ok {
			statusCounts[status]++
		}
	}

	var totalUsers int64
	if err := s.db.Model(&db.User{}).Count(&totalUsers).Error; err != nil {
		s.respondServerError(c, "Failed to fetch statistics", err)
		return
	}

	var recentIssues int64
	weekAgo := time.Now().AddDate(0, 0, -7)
	if err := s.db.Model(&db.Issue{}).Where("created_at >= ?", weekAgo).Count(&recentIssues).Error; err != nil {
		s.respondServerError(c, "Failed to fetch statistics", err)
		return
	}

	active := statusCounts[db.IssueStatusSubmitted] +
		statusCounts[db.IssueStatusUnderReview] +
		statusCounts[db.IssueStatusInProgress]

	c.JSON(http.StatusOK, gin.H{"stats": gin.H{
		"overview": gin.H{
			"total_issues":  len(statuses),
			"total_users":   totalUsers,
			"recent_issues": recentIssues,
			"active_issues": active,
		},
		"issues_by_status": statusCounts,
	}})
}

func (s *Server) handleAdminIssueStats(c *gin.Context) {
	var rows []struct {
		Name  string
		Count int64
	}
	err := s.db.Table("issues").
		Select("issue_categories.name, COUNT(*) AS count").
		Joins("JOIN issue_categories ON issue_categories.id = issues.category_id").
		Group("issue_categories.name").
		Scan(&rows).Error
	if err != nil {
		s.respondServerError(c, "Failed to fetch issue statistics", err)
		return
	}

	var totals struct {
		Issues   int64
		Upvotes  int64
		Views    int64
		Comments int64
	}
	err = s.db.Model(&db.Issue{}).
		Select("COUNT(*) AS issues, COALESCE(SUM(upvotes_count), 0) AS upvotes, " +
			"COALESCE(SUM(views_count), 0) AS views, COALESCE(SUM(comments_count), 0) AS comments").
		Scan(&totals).Error
	if err != nil {
		s.respondServerError(c, "Failed to fetch issue statistics", err)
		return
	}

	byCategory := make(map[string]int64, len(rows))
	for _, row := range rows {
		byCategory[row.Name] = row.Count
	}

	c.JSON(http.StatusOK, gin.H{"stats": gin.H{
		"total_issues":   totals.Issues,
		"total_upvotes":  totals.Upvotes,
		"total_views":    totals.Views,
		"total_comments": totals.Comments,
		"by_category":    byCategory,
	}})
}

func (s *Server) handleAdminListIssues(c *gin.Context) {
	query := s.db.Model(&db.Issue{})

	if status := c.Query("status"); status != "" && status != "all" {
		query = query.Where("status = ?", status)
	}
	if raw := c.Query("category_id"); raw != "" && raw != "all" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			query = query.Where("category_id = ?", uint(id))
		}
	}
	if priority := c.Query("priority"); priority != "" && priority != "all" {
		query = query.Where("priority = ?", priority)
	}

	switch c.Query("sort") {
	case "oldest":
		query = query.Order("created_at ASC")
	case "most_upvoted":
		query = query.Order("upvotes_count DESC")
	case "most_viewed":
		query = query.Order("views_count DESC")
	default:
		query = query.Order("created_at DESC")
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

func (s *Server) handleAdminGetIssue(c *gin.Context) {
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

	view := issueJSON(issue)
	if issue.UserID != nil && !issue.IsAnonymous {
		var reporter db.User
		if err := s.db.First(&reporter, *issue.UserID).Error; err == nil {
			view["reporter"] = gin.H{
				"id":           reporter.ID,
				"full_name":    reporter.FullName,
				"phone_number": reporter.PhoneNumber,
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"issue": view})
}

func (s *Server) handleAdminUpdateIssueStatus(c *gin.Context) {
	issueID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req updateIssueStatusRequest
	if !bindJSON(c, &req, nil, "Invalid status") {
		return
	}

	var issue db.Issue
	if err := s.db.First(&issue, issueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "Issue not found")
			return
		}
		s.respondServerError(c, "Failed to update issue status", err)
		return
	}

	now := time.Now().UTC()
	updates := map[string]any{"status": req.Status, "updated_at": now}
	if req.Status == db.IssueStatusResolved {
		updates["resolved_at"] = now
	}
	if err := s.db.Model(&db.Issue{}).Where("id = ?", issueID).Updates(updates).Error; err != nil {
		s.respondServerError(c, "Failed to update issue status", err)
		return
	}

	issue.Status = req.Status
	issue.UpdatedAt = now
	if req.Status == db.IssueStatusResolved {
		issue.ResolvedAt = &now
	}
	c.JSON(http.StatusOK, gin.H{"issue": issueJSON(issue)})
}

func (s *Server) handleAdminAddResponse(c *gin.Context) {
	issueID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req adminResponseRequest
	if !bindJSON(c, &req, nil, "Response text is required") {
		return
	}

	adminID, _ := currentUserID(c)
	now := time.Now().UTC()
	result := s.db.Model(&db.Issue{}).Where("id = ?", issueID).Updates(map[string]any{
		"admin_response":    req.Response,
		"admin_response_by": adminID,
		"admin_response_at": now,
		"updated_at":        now,
	})
	if result.Error != nil {
		s.respondServerError(c, "Failed to add admin response", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, "Issue not found")
		return
	}

	var issue db.Issue
	if err := s.db.First(&issue, issueID).Error; err != nil {
		s.respondServerError(c, "Failed to add admin response", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issue": issueJSON(issue)})
}

func (s *Server) handleAdminUpdateIssuePriority(c *gin.Context) {
	issueID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req updateIssuePriorityRequest
	if !bindJSON(c, &req, nil, "Invalid priority") {
		return
	}

	result := s.db.Model(&db.Issue{}).Where("id = ?", issueID).Updates(map[string]any{
		"priority":   req.Priority,
		"updated_at": time.Now().UTC(),
	})
	if result.Error != nil {
		s.respondServerError(c, "Failed to update issue priority", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, "Issue not found")
		return
	}

	var issue db.Issue
	if err := s.db.First(&issue, issueID).Error; err != nil {
		s.respondServerError(c, "Failed to update issue priority", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issue": issueJSON(issue)})
}

func (s *Server) handleAdminListUsers(c *gin.Context) {
	page, perPage := parsePagination(c, 50, 200)

	var total int64
	if err := s.db.Model(&db.User{}).Count(&total).Error; err != nil {
		s.respondServerError(c, "Failed to fetch users", err)
		return
	}

	var users []db.User
	err := s.db.Model(&db.User{}).Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).Find(&users).Error
	if err != nil {
		s.respondServerError(c, "Failed to fetch users", err)
		return
	}

	views := make([]gin.H, len(users))
	for i, user := range users {
		views[i] = userJSON(user)
	}
	c.JSON(http.StatusOK, gin.H{
		"users":      views,
		"pagination": paginationMeta(page, perPage, total),
	})
}

// handleAdminUpdateUserRole grants or revokes the admin role. Super admin
// accounts themselves can only be changed directly in the database.
func (s *Server) handleAdminUpdateUserRole(c *gin.Context) {
	userID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req updateUserRoleRequest
	if !bindJSON(c, &req, nil, "Role must be one of: voter, admin") {
		return
	}

	var user db.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		s.respondServerError(c, "Failed to update user role", err)
		return
	}
	if user.Role == db.RoleSuperAdmin {
		respondError(c, http.StatusForbidden, "Cannot change a super admin role")
		return
	}

	err := s.db.Model(&db.User{}).Where("id = ?", userID).Updates(map[string]any{
		"role":       req.Role,
		"updated_at": time.Now().UTC(),
	}).Error
	if err != nil {
		s.respondServerError(c, "Failed to update user role", err)
		return
	}
	user.Role = req.Role
	c.JSON(http.StatusOK, gin.H{"message": "User role updated successfully", "user": userJSON(user)})
}
