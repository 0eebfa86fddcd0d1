package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "JWT_SECRET", "ACCESS_TOKEN_TTL", "MQTT_BROKER", "ALLOWED_ORIGINS", "DISEASE_CONFIDENCE_THRESHOLD", "DISEASE_MAX_UPLOAD_MB"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "change-me", cfg.JWTSecret)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Empty(t, cfg.MQTTBroker)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, 0.7, cfg.DiseaseThreshold)
	assert.Equal(t, 10, cfg.DiseaseMaxUploadMB)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("DISEASE_CONFIDENCE_THRESHOLD", "0.55")
	t.Setenv("DISEASE_WARM_ON_START", "true")
	t.Setenv("MQTT_BROKER", "tcp://broker:1883")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 0.55, cfg.DiseaseThreshold)
	assert.True(t, cfg.DiseaseWarmOnStart)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTTBroker)
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("REFRESH_TOKEN_TTL", "a week")
	t.Setenv("DISEASE_CONFIDENCE_THRESHOLD", "high")
	t.Setenv("DISEASE_MAX_UPLOAD_MB", "ten")
	t.Setenv("DISEASE_WARM_ON_START", "maybe")

	cfg := Load()
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 0.7, cfg.DiseaseThreshold)
	assert.Equal(t, 10, cfg.DiseaseMaxUploadMB)
	assert.False(t, cfg.DiseaseWarmOnStart)
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "Asia/Kuala_Lumpur"}
	assert.Equal(t, "Asia/Kuala_Lumpur", cfg.Location().String())

	cfg.Timezone = "Mars/Olympus_Mons"
	assert.Equal(t, time.UTC, cfg.Location())
}
