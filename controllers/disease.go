package controllers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inamkj/Agriboost/disease"
	"github.com/inamkj/Agriboost/middlewares"
	"github.com/inamkj/Agriboost/models"
)

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// PredictDisease classifies an uploaded leaf image. Only confident
// diagnoses are saved to history.
func (h *Handler) PredictDisease(c *gin.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image is too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required."})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !imageExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported image type " + strconv.Quote(ext)})
		return
	}

	image, err := io.ReadAll(file)
	if err != nil || len(image) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read image"})
		return
	}

	// The model service only sees a random name, never the user's filename.
	uploadName := uuid.NewString() + ext
	d, err := h.Disease.Diagnose(c.Request.Context(), image, uploadName)
	if errors.Is(err, disease.ErrModelUnavailable) {
		log.Printf("disease: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Disease model is unavailable"})
		return
	}
	if err != nil {
		log.Printf("disease: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Prediction failed"})
		return
	}

	if !d.Known() {
		c.JSON(http.StatusOK, gin.H{"prediction": d})
		return
	}

	entry := models.DiseaseHistory{
		UserID:         userID,
		ImageName:      header.Filename,
		LabelIndex:     *d.LabelIndex,
		Label:          d.Label,
		Confidence:     d.Confidence,
		Recommendation: d.Recommendation,
	}
	if err := h.History.SaveDiagnosis(c.Request.Context(), &entry); err != nil {
		log.Printf("disease: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save diagnosis"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"prediction": d, "history_id": entry.ID})
}

// GetDiseaseHistory lists the caller's saved diagnoses, newest first.
func (h *Handler) GetDiseaseHistory(c *gin.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	history, err := h.History.ListDiagnoses(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}
	if history == nil {
		history = []models.DiseaseHistory{}
	}
	c.JSON(http.StatusOK, history)
}
