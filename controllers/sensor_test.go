package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/inamkj/Agriboost/models"
	"github.com/inamkj/Agriboost/sensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFeed(t *testing.T) {
	latest := sensors.NewLatest()
	h := &Handler{Sensors: latest, Latest: latest}
	r := gin.New()
	r.GET("/feed", h.GetFeed)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/feed", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var feed sensors.Feed
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	assert.Equal(t, sensors.OriginPlaceholder, feed.Source)
	require.Len(t, feed.Sensors, 1)
	assert.Equal(t, 6.8, feed.Sensors[0].SoilPH)

	latest.Set(sensors.Normalize(map[string]any{"PH": 5.1, "Moisture": 20}, testNow), sensors.OriginMQTT)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/feed", nil))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &feed))
	assert.Equal(t, sensors.OriginMQTT, feed.Source)
	assert.Equal(t, 5.1, feed.Sensors[0].SoilPH)
	assert.True(t, testNow.Equal(feed.LastUpdated))
	assert.Len(t, feed.Sensors[0].Alerts, 1)
}

func TestGetFeedError(t *testing.T) {
	h := &Handler{Sensors: fakeSource{err: errSourceDown}}
	r := gin.New()
	r.GET("/feed", h.GetFeed)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/feed", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "error", body["source"])
	assert.Equal(t, []any{}, body["sensors"])
	assert.Nil(t, body["last_updated"])
}

func TestCanonicalSoilType(t *testing.T) {
	tests := map[string]string{"": "Loamy", " sandy ": "Sandy", "RED": "Red", "Black": "Black"}
	for in, want := range tests {
		got, ok := canonicalSoilType(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	_, ok := canonicalSoilType("Peaty")
	assert.False(t, ok)
}

func TestReceiveDataRejectsPayloadWithoutReading(t *testing.T) {
	latest := sensors.NewLatest()
	h := &Handler{Sensors: latest, Latest: latest}
	r := gin.New()
	r.POST("/data", withUser(4, models.RoleFarmer), h.ReceiveData)

	for _, body := range []string{
		`{"status":"ok","count":3}`,
		`{"sensor-a":"offline"}`,
		`["x"]`,
		`{}`,
		`7`,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/data", bytes.NewBufferString(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	snap, err := latest.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sensors.OriginPlaceholder, snap.Origin)
}
