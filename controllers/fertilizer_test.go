package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/inamkj/Agriboost/fertilizer"
	"github.com/inamkj/Agriboost/models"
	"github.com/inamkj/Agriboost/sensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type predictBody struct {
	Prediction struct {
		fertilizer.Recommendation
		ApplicationInstructions string `json:"application_instructions"`
		Precautions             string `json:"precautions"`
	} `json:"prediction"`
	PredictionHistory models.FertilizerPrediction `json:"prediction_history"`
	SensorReadings    sensorInputs                `json:"sensor_readings"`
	Message           string                      `json:"message"`
}

func fertilizerRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.POST("/predict", withUser(7, models.RoleFarmer), h.PredictFertilizer)
	r.GET("/predictions", withUser(7, models.RoleFarmer), h.GetPredictions)
	r.GET("/predictions/:id", withUser(7, models.RoleFarmer), h.GetPrediction)
	return r
}

func postPredict(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPredictFertilizerUsesSnapshot(t *testing.T) {
	history := &fakeHistory{}
	h := &Handler{History: history, Sensors: placeholderSource()}
	r := fertilizerRouter(h)

	w := postPredict(t, r, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got predictBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, fertilizer.Maintenance, got.Prediction.RecommendedFertilizer)
	assert.Equal(t, 50.0, got.Prediction.FertilizerAmount)
	assert.Equal(t, 0.9, got.Prediction.ConfidenceScore)
	assert.Equal(t, fertilizer.Guide(fertilizer.Maintenance).Instructions, got.Prediction.ApplicationInstructions)
	assert.Equal(t, sensors.OriginPlaceholder, got.SensorReadings.Source)
	assert.Equal(t, DefaultSoilType, got.SensorReadings.SoilType)
	assert.Equal(t, CropType, got.SensorReadings.CropType)
	assert.Equal(t, "Fertilizer prediction completed and saved to history", got.Message)

	require.Len(t, history.predictions, 1)
	saved := history.predictions[0]
	assert.Equal(t, uint(7), saved.UserID)
	assert.Equal(t, saved.ID, got.PredictionHistory.ID)
	assert.Equal(t, 45.0, saved.Nitrogen)
	assert.Equal(t, got.Prediction.AllFertilizers, saved.AllFertilizers)
}

func TestPredictFertilizerMergesBodyOverSnapshot(t *testing.T) {
	history := &fakeHistory{}
	r := fertilizerRouter(&Handler{History: history, Sensors: placeholderSource()})

	w := postPredict(t, r, `{"nitrogen":20,"phosphorus":10,"potassium":15,"soil_type":"clayey"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got predictBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, fertilizer.Balanced, got.Prediction.RecommendedFertilizer)
	assert.Equal(t, 60.0, got.Prediction.FertilizerAmount)
	assert.Equal(t, 0.8, got.Prediction.ConfidenceScore)
	assert.Equal(t, "request", got.SensorReadings.Source)
	assert.Equal(t, "Clayey", got.SensorReadings.SoilType)
	assert.Equal(t, 10.0, got.SensorReadings.Phosphorous)
	// untouched fields come from the snapshot
	assert.Equal(t, 6.8, got.SensorReadings.SoilPH)
	assert.Equal(t, 28.5, got.SensorReadings.Temperature)
}

func TestPredictFertilizerMatchesEngine(t *testing.T) {
	r := fertilizerRouter(&Handler{History: &fakeHistory{}, Sensors: placeholderSource()})

	body := `{"temperature":38,"moisture":30,"soil_ph":5.2,"nitrogen":30,"phosphorous":28,"potassium":38,"ec":2.5}`
	w := postPredict(t, r, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got predictBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	want := fertilizer.Predict(30, 28, 38, 5.2, 30, 38, nil)
	assert.Equal(t, want, got.Prediction.Recommendation)
}

func TestPredictFertilizerRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"nitrogen":`},
		{"wrong type", `{"nitrogen":"lots"}`},
		{"ph above range", `{"soil_ph":14.5}`},
		{"ph below range", `{"soil_ph":-1}`},
		{"unknown soil", `{"soil_type":"Peaty"}`},
		{"other crop", `{"crop_type":"Rice"}`},
		{"overflowing number", `{"temperature":1e400}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := &fakeHistory{}
			r := fertilizerRouter(&Handler{History: history, Sensors: placeholderSource()})

			w := postPredict(t, r, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, history.predictions)
		})
	}
}

func TestPredictFertilizerAcceptsCropCase(t *testing.T) {
	r := fertilizerRouter(&Handler{History: &fakeHistory{}, Sensors: placeholderSource()})
	w := postPredict(t, r, `{"crop_type":"sugarcane","soil_ph":14}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPredictFertilizerSourceUnavailable(t *testing.T) {
	r := fertilizerRouter(&Handler{History: &fakeHistory{}, Sensors: fakeSource{err: errSourceDown}})
	w := postPredict(t, r, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPredictFertilizerStoreFailure(t *testing.T) {
	r := fertilizerRouter(&Handler{History: &fakeHistory{err: errors.New("db down")}, Sensors: placeholderSource()})
	w := postPredict(t, r, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetPredictions(t *testing.T) {
	history := &fakeHistory{}
	h := &Handler{History: history, Sensors: placeholderSource()}
	r := fertilizerRouter(h)

	require.Equal(t, http.StatusOK, postPredict(t, r, `{"nitrogen":20}`).Code)
	require.Equal(t, http.StatusOK, postPredict(t, r, "").Code)
	history.predictions = append(history.predictions, models.FertilizerPrediction{ID: 99, UserID: 8})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/predictions", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Count   int                           `json:"count"`
		Results []models.FertilizerPrediction `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 2, got.Count)
	require.Len(t, got.Results, 2)
	assert.Equal(t, fertilizer.Maintenance, got.Results[0].RecommendedFertilizer)
	assert.Equal(t, fertilizer.Urea, got.Results[1].RecommendedFertilizer)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/predictions?limit=1", nil))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Count)
}

func TestGetPredictionsEmpty(t *testing.T) {
	r := fertilizerRouter(&Handler{History: &fakeHistory{}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/predictions", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":0,"results":[]}`, w.Body.String())
}

func TestGetPrediction(t *testing.T) {
	history := &fakeHistory{}
	r := fertilizerRouter(&Handler{History: history, Sensors: placeholderSource()})
	require.Equal(t, http.StatusOK, postPredict(t, r, "").Code)
	history.predictions = append(history.predictions, models.FertilizerPrediction{ID: 2, UserID: 8})

	tests := []struct {
		path   string
		status int
	}{
		{"/predictions/1", http.StatusOK},
		{"/predictions/2", http.StatusNotFound},
		{"/predictions/abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, tt.status, w.Code, tt.path)
	}
}

func TestValidateInputsRejectsNonFinite(t *testing.T) {
	in := sensorInputs{SoilPH: 6.5}
	assert.NoError(t, validateInputs(in))

	bad := in
	bad.Nitrogen = nan()
	assert.ErrorContains(t, validateInputs(bad), "nitrogen")

	bad = in
	bad.Temperature = inf()
	assert.ErrorContains(t, validateInputs(bad), "temperature")
}
