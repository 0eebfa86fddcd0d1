package controllers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/inamkj/Agriboost/middlewares"
	"github.com/inamkj/Agriboost/models"
	"github.com/inamkj/Agriboost/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const historyTimeLayout = "2006-01-02 15:04:05"

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func userJSON(u models.User) gin.H {
	return gin.H{
		"id":        u.ID,
		"email":     u.Email,
		"full_name": u.FullName,
		"address":   u.Address,
		"role":      u.Role,
	}
}

// recordHistory stores an activity row. Failures are logged, never returned
// to the client.
func (h *Handler) recordHistory(userID uint, action, description string, details any) {
	raw, err := json.Marshal(details)
	if err != nil {
		raw = []byte("{}")
	}
	entry := models.UserHistory{
		UserID:      userID,
		Action:      action,
		Description: description,
		Details:     string(raw),
	}
	if err := h.DB.Create(&entry).Error; err != nil {
		log.Printf("failed to record %s for user %d: %v", action, userID, err)
	}
}

// currentUser loads the authenticated user, writing the error response
// itself when that fails.
func (h *Handler) currentUser(c *gin.Context) (models.User, bool) {
	var user models.User
	userID, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return user, false
	}
	if err := h.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find user"})
		}
		return user, false
	}
	return user, true
}

func (h *Handler) issueTokens(user models.User) (access, refresh string, err error) {
	access, err = h.Auth.IssueAccess(user.ID, user.Role)
	if err != nil {
		return "", "", err
	}
	refresh, err = h.Auth.IssueRefresh(user.ID, user.Role)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

type registerRequest struct {
	Email           string `json:"email" binding:"required,email"`
	FullName        string `json:"full_name" binding:"required"`
	Address         string `json:"address"`
	Password        string `json:"password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// Register creates an unverified farmer account and prints its OTP to the
// server log.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "detail": err.Error()})
		return
	}
	if strings.TrimSpace(req.FullName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Full name is required."})
		return
	}
	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Passwords do not match."})
		return
	}

	email := normalizeEmail(req.Email)
	var count int64
	if err := h.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check email"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "A user with this email already exists."})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error hashing password"})
		return
	}
	otp, err := utils.GenerateOTP()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate OTP"})
		return
	}

	user := models.User{
		Email:    email,
		FullName: strings.TrimSpace(req.FullName),
		Address:  req.Address,
		Password: string(hashedPassword),
		Role:     models.RoleFarmer,
		OTP:      otp,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
		return
	}

	log.Printf("[OTP for %s]: %s", user.Email, otp)
	h.recordHistory(user.ID, "register", "User initiated registration (OTP pending)", gin.H{
		"email": user.Email,
		"role":  user.Role,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully. Check console for OTP to verify email.",
		"user_id": user.ID,
	})
}

// VerifyOTP activates an account and signs the user in.
func (h *Handler) VerifyOTP(c *gin.Context) {
	var req struct {
		UserID uint   `json:"user_id"`
		OTP    string `json:"otp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == 0 || req.OTP == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and otp are required."})
		return
	}

	var user models.User
	if err := h.DB.First(&user, req.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if user.OTP == "" || subtle.ConstantTimeCompare([]byte(user.OTP), []byte(req.OTP)) != 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OTP"})
		return
	}

	user.EmailVerified = true
	user.OTP = ""
	if err := h.DB.Model(&user).Updates(map[string]any{"email_verified": true, "otp": ""}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify account"})
		return
	}

	access, refresh, err := h.issueTokens(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error generating token"})
		return
	}
	h.recordHistory(user.ID, "verify_otp", "User verified OTP and activated account", gin.H{"email": user.Email})

	c.JSON(http.StatusOK, gin.H{
		"message": "Email verified successfully. Account activated.",
		"access":  access,
		"refresh": refresh,
		"user":    userJSON(user),
	})
}

// Login authenticates a verified user and returns an access/refresh pair.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required."})
		return
	}
	if req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password is required."})
		return
	}

	var user models.User
	if err := h.DB.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if !user.EmailVerified {
		c.JSON(http.StatusForbidden, gin.H{"error": "Please verify your email before logging in."})
		return
	}

	access, refresh, err := h.issueTokens(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error generating token"})
		return
	}
	h.recordHistory(user.ID, "login", "User logged in", gin.H{
		"ip":         c.ClientIP(),
		"user_agent": c.Request.UserAgent(),
	})

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"email":     user.Email,
			"full_name": user.FullName,
			"role":      user.Role,
		},
		"access":  access,
		"refresh": refresh,
	})
}

// Refresh exchanges a refresh token for a new access token.
func (h *Handler) Refresh(c *gin.Context) {
	var req struct {
		Refresh string `json:"refresh" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh is required."})
		return
	}

	claims, err := h.Auth.Parse(req.Refresh, middlewares.TokenRefresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}
	userID, ok := middlewares.ClaimUserID(claims)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token payload"})
		return
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	access, err := h.Auth.IssueAccess(user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error generating token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access})
}

func (h *Handler) GetProfile(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, userJSON(user))
}

// UpdateProfile replaces email, full name and address.
func (h *Handler) UpdateProfile(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req struct {
		Email    string `json:"email" binding:"required,email"`
		FullName string `json:"full_name" binding:"required"`
		Address  string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "detail": err.Error()})
		return
	}

	email := normalizeEmail(req.Email)
	var count int64
	if err := h.DB.Model(&models.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This email is already in use."})
		return
	}

	changed := gin.H{}
	if user.Email != email {
		changed["email"] = gin.H{"from": user.Email, "to": email}
	}
	if user.FullName != req.FullName {
		changed["full_name"] = gin.H{"from": user.FullName, "to": req.FullName}
	}

	user.Email = email
	user.FullName = req.FullName
	user.Address = req.Address
	if err := h.DB.Model(&user).Updates(map[string]any{
		"email":     user.Email,
		"full_name": user.FullName,
		"address":   user.Address,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	h.recordHistory(user.ID, "update_profile", "Profile updated", gin.H{"changed": changed})
	c.JSON(http.StatusOK, userJSON(user))
}

func (h *Handler) ChangePassword(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "detail": err.Error()})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Wrong password."})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error hashing password"})
		return
	}
	if err := h.DB.Model(&user).Update("password", string(hashedPassword)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	h.recordHistory(user.ID, "change_password", "Password changed", gin.H{})
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully."})
}

// GetUserHistory lists the caller's account activity, newest first.
func (h *Handler) GetUserHistory(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var entries []models.UserHistory
	if err := h.DB.Where("user_id = ?", user.ID).Order("created_at desc").Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	response := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		response = append(response, gin.H{
			"id":          e.ID,
			"user_email":  user.Email,
			"user_name":   user.FullName,
			"action":      e.Action,
			"description": e.Description,
			"details":     e.Details,
			"created_at":  e.CreatedAt.In(h.now().Location()).Format(historyTimeLayout),
		})
	}
	c.JSON(http.StatusOK, response)
}

// PromoteUser sets another account's role. Admin only.
func (h *Handler) PromoteUser(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
		Role  string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}
	if !models.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unknown role %q", req.Role)})
		return
	}

	result := h.DB.Model(&models.User{}).Where("email = ?", normalizeEmail(req.Email)).Update("role", req.Role)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user role"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	log.Printf("Updated role for %s to %s", req.Email, req.Role)
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("User role updated to %s", req.Role)})
}

// GetUsers lists every account. Admin only.
func (h *Handler) GetUsers(c *gin.Context) {
	var users []models.User
	if err := h.DB.Order("id").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to fetch users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

// DeleteUserAccount removes an account and everything it owns. Admin only.
func (h *Handler) DeleteUserAccount(c *gin.Context) {
	adminID, _ := middlewares.UserID(c)
	targetUserID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	if uint(targetUserID) == adminID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account"})
		return
	}

	var targetUser models.User
	if err := h.DB.First(&targetUser, targetUserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var sensorRows int64
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ?", targetUser.ID).Delete(&models.SensorData{})
		if res.Error != nil {
			return res.Error
		}
		sensorRows = res.RowsAffected
		for _, model := range []any{&models.FertilizerPrediction{}, &models.DiseaseHistory{}, &models.UserHistory{}} {
			if err := tx.Where("user_id = ?", targetUser.ID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&targetUser).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":                fmt.Sprintf("Successfully deleted user account '%s' and all associated data", targetUser.Email),
		"deleted_user":           userJSON(targetUser),
		"deleted_sensor_records": sensorRows,
	})
}
