package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/inamkj/Agriboost/fertilizer"
	"github.com/inamkj/Agriboost/middlewares"
	"github.com/inamkj/Agriboost/models"
	"github.com/inamkj/Agriboost/sensors"
	"github.com/inamkj/Agriboost/store"
)

// CropType is the only crop the recommendation rules are tuned for.
const CropType = "Sugarcane"

const DefaultSoilType = "Loamy"

var soilTypes = []string{"Loamy", "Clayey", "Sandy", "Black", "Red"}

// predictRequest fields are all optional; anything left out is taken from
// the latest sensor snapshot.
type predictRequest struct {
	Temperature  *float64 `json:"temperature"`
	Humidity     *float64 `json:"humidity"`
	Moisture     *float64 `json:"moisture"`
	SoilMoisture *float64 `json:"soil_moisture"`
	SoilPH       *float64 `json:"soil_ph"`
	EC           *float64 `json:"ec"`
	Nitrogen     *float64 `json:"nitrogen"`
	Phosphorous  *float64 `json:"phosphorous"`
	Phosphorus   *float64 `json:"phosphorus"`
	Potassium    *float64 `json:"potassium"`
	SoilType     string   `json:"soil_type"`
	CropType     string   `json:"crop_type"`
}

// sensorInputs are the values the engine actually ran on.
type sensorInputs struct {
	Temperature  float64 `json:"temperature"`
	Humidity     float64 `json:"humidity"`
	SoilMoisture float64 `json:"soil_moisture"`
	SoilPH       float64 `json:"soil_ph"`
	EC           float64 `json:"ec"`
	Nitrogen     float64 `json:"nitrogen"`
	Phosphorous  float64 `json:"phosphorous"`
	Potassium    float64 `json:"potassium"`
	SoilType     string  `json:"soil_type"`
	CropType     string  `json:"crop_type"`
	Source       string  `json:"source"`
}

type predictionResponse struct {
	fertilizer.Recommendation
	ApplicationInstructions string `json:"application_instructions"`
	Precautions             string `json:"precautions"`
}

func pick(values ...*float64) (float64, bool) {
	for _, v := range values {
		if v != nil {
			return *v, true
		}
	}
	return 0, false
}

func canonicalSoilType(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultSoilType, true
	}
	for _, t := range soilTypes {
		if strings.EqualFold(s, t) {
			return t, true
		}
	}
	return "", false
}

// mergeInputs fills every field missing from req with the snapshot value.
func mergeInputs(req predictRequest, snap sensors.Snapshot) sensorInputs {
	r := snap.Reading
	in := sensorInputs{
		Temperature:  r.Temperature,
		Humidity:     r.Humidity,
		SoilMoisture: r.SoilMoisture,
		SoilPH:       r.SoilPH,
		EC:           r.EC,
		Nitrogen:     r.Nitrogen,
		Phosphorous:  r.Phosphorous,
		Potassium:    r.Potassium,
		Source:       snap.Origin,
	}

	overridden := false
	set := func(dst *float64, values ...*float64) {
		if v, ok := pick(values...); ok {
			*dst = v
			overridden = true
		}
	}
	set(&in.Temperature, req.Temperature)
	set(&in.Humidity, req.Humidity)
	set(&in.SoilMoisture, req.Moisture, req.SoilMoisture)
	set(&in.SoilPH, req.SoilPH)
	set(&in.EC, req.EC)
	set(&in.Nitrogen, req.Nitrogen)
	set(&in.Phosphorous, req.Phosphorous, req.Phosphorus)
	set(&in.Potassium, req.Potassium)

	if overridden {
		in.Source = "request"
	}
	return in
}

func validateInputs(in sensorInputs) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"temperature", in.Temperature},
		{"humidity", in.Humidity},
		{"moisture", in.SoilMoisture},
		{"soil_ph", in.SoilPH},
		{"ec", in.EC},
		{"nitrogen", in.Nitrogen},
		{"phosphorous", in.Phosphorous},
		{"potassium", in.Potassium},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%s must be a finite number", f.name)
		}
	}
	if in.SoilPH < 0 || in.SoilPH > 14 {
		return errors.New("soil_ph must be between 0 and 14")
	}
	return nil
}

// PredictFertilizer runs the recommendation engine on the request body
// merged over the latest sensor snapshot and saves the result.
func (h *Handler) PredictFertilizer(c *gin.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req predictRequest
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "detail": err.Error()})
			return
		}
	}

	soilType, ok := canonicalSoilType(req.SoilType)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("soil_type must be one of %s", strings.Join(soilTypes, ", ")),
		})
		return
	}
	if req.CropType != "" && !strings.EqualFold(req.CropType, CropType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "crop_type must be Sugarcane"})
		return
	}

	snap, err := h.Sensors.Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "No sensor data available. Provide sensor readings or wait for device data.",
		})
		return
	}

	in := mergeInputs(req, snap)
	in.SoilType = soilType
	in.CropType = CropType
	if err := validateInputs(in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ec := in.EC
	rec := fertilizer.Predict(in.Nitrogen, in.Phosphorous, in.Potassium, in.SoilPH, in.SoilMoisture, in.Temperature, &ec)
	guide := fertilizer.Guide(rec.RecommendedFertilizer)

	record := models.FertilizerPrediction{
		UserID:                userID,
		Temperature:           in.Temperature,
		Humidity:              in.Humidity,
		Moisture:              in.SoilMoisture,
		SoilPH:                in.SoilPH,
		EC:                    in.EC,
		Nitrogen:              in.Nitrogen,
		Phosphorous:           in.Phosphorous,
		Potassium:             in.Potassium,
		SoilType:              in.SoilType,
		CropType:              in.CropType,
		RecommendedFertilizer: rec.RecommendedFertilizer,
		FertilizerAmount:      rec.FertilizerAmount,
		ConfidenceScore:       rec.ConfidenceScore,
		Details:               rec.RecommendationDetails,
		Instructions:          guide.Instructions,
		Precautions:           guide.Precautions,
		AllFertilizers:        rec.AllFertilizers,
		SensorSource:          in.Source,
	}
	if err := h.History.SavePrediction(c.Request.Context(), &record); err != nil {
		log.Printf("fertilizer: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save prediction"})
		return
	}

	if h.Hub != nil {
		h.Hub.SendTo(userID, EventRecommendation, record)
	}

	c.JSON(http.StatusOK, gin.H{
		"prediction": predictionResponse{
			Recommendation:          rec,
			ApplicationInstructions: guide.Instructions,
			Precautions:             guide.Precautions,
		},
		"prediction_history": record,
		"sensor_readings":    in,
		"message":            "Fertilizer prediction completed and saved to history",
	})
}

// GetPredictions lists the caller's saved recommendations, newest first.
func (h *Handler) GetPredictions(c *gin.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	results, err := h.History.ListPredictions(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch predictions"})
		return
	}
	if results == nil {
		results = []models.FertilizerPrediction{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(results), "results": results})
}

func (h *Handler) GetPrediction(c *gin.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid prediction id"})
		return
	}

	p, err := h.History.Prediction(c.Request.Context(), userID, uint(id))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Prediction not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch prediction"})
		return
	}
	c.JSON(http.StatusOK, p)
}
