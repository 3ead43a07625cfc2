package server

import (
	"errors"
	"net/http"

	"civicpulse/internal/auth"
	"civicpulse/internal/db"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type registerRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required,phone"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	FullName    string `json:"full_name" binding:"required,max=128"`
	AgeGroup    string `json:"age_group" binding:"omitempty,oneof=18-25 26-35 36-45 46-55 56+"`
	Gender      string `json:"gender" binding:"omitempty,oneof=male female other prefer_not_to_say"`
	CountyID    *uint  `json:"county_id"`
}

type loginRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

type updateProfileRequest struct {
	FullName       *string `json:"full_name" binding:"omitempty,max=128"`
	AgeGroup       *string `json:"age_group" binding:"omitempty,oneof=18-25 26-35 36-45 46-55 56+"`
	Gender         *string `json:"gender" binding:"omitempty,oneof=male female other prefer_not_to_say"`
	CountyID       *uint   `json:"county_id"`
	ConstituencyID *uint   `json:"constituency_id"`
	WardID         *uint   `json:"ward_id"`
}

var registerMessages = bindMessages{
	"PhoneNumber": {
		"required": "Phone number, password, and full name are required",
		"phone":    "Phone number must be a valid Kenyan mobile number",
	},
	"Password": {
		"required": "Phone number, password, and full name are required",
		"min":      "Password must be at least 8 characters",
	},
	"FullName": {
		"required": "Phone number, password, and full name are required",
	},
}

func userJSON(u db.User) gin.H {
	return gin.H{
		"id":           u.ID,
		"phone_number": u.PhoneNumber,
		"full_name":    u.FullName,
		"role":         u.Role,
		"status":       u.Status,
		"age_group":    u.AgeGroup,
		"gender":       u.Gender,
		"county_id":    u.CountyID,
		"created_at":   u.CreatedAt,
	}
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req, registerMessages, "Phone number, password, and full name are required") {
		return
	}

	var existing db.User
	err := s.db.Where("phone_number = ?", req.PhoneNumber).First(&existing).Error
	if err == nil {
		respondError(c, http.StatusConflict, "Phone number already registered")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.respondServerError(c, "Registration failed", err)
		return
	}

	hash, err := auth.HashPassword(req.Password, s.cfg.BcryptCost)
	if err != nil {
		s.respondServerError(c, "Registration failed", err)
		return
	}

	user := db.User{
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         db.RoleVoter,
		Status:       "active",
		AgeGroup:     req.AgeGroup,
		Gender:       req.Gender,
		CountyID:     req.CountyID,
	}
	if user.AgeGroup == "" {
		user.AgeGroup = "26-35"
	}
	if user.Gender == "" {
		user.Gender = "prefer_not_to_say"
	}
	if err := s.db.Create(&user).Error; err != nil {
		// Two concurrent registrations for the same phone race past the
		// existence check; the unique index settles it.
		if isUniqueViolation(err) {
			respondError(c, http.StatusConflict, "Phone number already registered")
			return
		}
		s.respondServerError(c, "Registration failed", err)
		return
	}

	token, err := auth.NewToken(user.ID, user.Role, s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		s.respondServerError(c, "Registration failed", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"user":    userJSON(user),
		"token":   token,
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req, nil, "Phone number and password are required") {
		return
	}

	var user db.User
	err := s.db.Where("phone_number = ?", req.PhoneNumber).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same message as a wrong password so callers cannot probe for
			// registered numbers.
			respondError(c, http.StatusUnauthorized, "Invalid phone number or password")
			return
		}
		s.respondServerError(c, "Login failed", err)
		return
	}
	if !auth.ComparePassword(user.PasswordHash, req.Password) {
		respondError(c, http.StatusUnauthorized, "Invalid phone number or password")
		return
	}
	if user.Status != "active" {
		respondError(c, http.StatusForbidden, "Account is suspended")
		return
	}

	token, err := auth.NewToken(user.ID, user.Role, s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		s.respondServerError(c, "Login failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    userJSON(user),
		"token":   token,
	})
}

func (s *Server) handleGetProfile(c *gin.Context) {
	userID, _ := currentUserID(c)
	var user db.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		s.respondServerError(c, "Failed to get profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userJSON(user)})
}

func (s *Server) handleUpdateProfile(c *gin.Context) {
	userID, _ := currentUserID(c)
	var req updateProfileRequest
	if !bindJSON(c, &req, nil, "invalid profile update") {
		return
	}

	var user db.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		s.respondServerError(c, "Failed to update profile", err)
		return
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.AgeGroup != nil {
		user.AgeGroup = *req.AgeGroup
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}
	if req.CountyID != nil {
		user.CountyID = req.CountyID
	}
	if req.ConstituencyID != nil {
		user.ConstituencyID = req.ConstituencyID
	}
	if req.WardID != nil {
		user.WardID = req.WardID
	}

	if err := s.db.Save(&user).Error; err != nil {
		s.respondServerError(c, "Failed to update profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": userJSON(user)})
}
