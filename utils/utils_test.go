package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/inamkj/Agriboost/models"
	"github.com/inamkj/Agriboost/sensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAbnormalType(t *testing.T) {
	normal := models.SensorData{Temperature: 25, SoilPH: 6.5, SoilMoisture: 50}

	tests := []struct {
		name   string
		mutate func(d *models.SensorData)
		want   string
	}{
		{"in range", func(d *models.SensorData) {}, ""},
		{"hot", func(d *models.SensorData) { d.Temperature = 41 }, "Temperature"},
		{"cold", func(d *models.SensorData) { d.Temperature = 9.9 }, "Temperature"},
		{"acidic", func(d *models.SensorData) { d.SoilPH = 4.8 }, "Soil pH"},
		{"alkaline", func(d *models.SensorData) { d.SoilPH = 8.3 }, "Soil pH"},
		{"dry", func(d *models.SensorData) { d.SoilMoisture = 20 }, "Soil Moisture"},
		{"temperature reported first", func(d *models.SensorData) { d.Temperature = 45; d.SoilMoisture = 10 }, "Temperature"},
		{"edges are normal", func(d *models.SensorData) { d.Temperature = 40; d.SoilPH = 8; d.SoilMoisture = 30 }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := normal
			tt.mutate(&d)
			assert.Equal(t, tt.want, GetAbnormalType(d))
			assert.Equal(t, tt.want != "", CheckAbnormality(d))
		})
	}
}

func TestSensorRecordAgreesWithAlerts(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	userID := uint(3)

	r := sensors.Normalize(map[string]any{"PH": 4.2, "Nitrogen": 12}, now)
	rec := SensorRecord(r, "esp32-9", &userID)

	require.NotNil(t, rec.UserID)
	assert.Equal(t, uint(3), *rec.UserID)
	assert.Equal(t, "esp32-9", rec.DeviceID)
	assert.Equal(t, 4.2, rec.SoilPH)
	assert.Equal(t, 12.0, rec.Nitrogen)
	assert.Equal(t, now, rec.Timestamp)
	assert.True(t, rec.IsAbnormal)
	assert.NotEmpty(t, r.Alerts)

	calm := SensorRecord(sensors.Placeholder(now), "", nil)
	assert.False(t, calm.IsAbnormal)
	assert.Empty(t, sensors.Alerts(sensors.Placeholder(now)))
}

func TestGenerateOTP(t *testing.T) {
	pattern := regexp.MustCompile(`^[1-9]\d{5}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		otp, err := GenerateOTP()
		require.NoError(t, err)
		assert.Regexp(t, pattern, otp)
		seen[otp] = true
	}
	assert.Greater(t, len(seen), 1)
}
