package models

import "time"

// SensorData is one persisted device reading.
type SensorData struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       *uint     `json:"user_id" gorm:"index"`
	DeviceID     string    `json:"device_id" gorm:"index"`
	Label        string    `json:"label"`
	Timestamp    time.Time `json:"timestamp" gorm:"index"`
	Temperature  float64   `json:"temperature"`
	Humidity     float64   `json:"humidity"`
	SoilMoisture float64   `json:"soil_moisture"`
	SoilPH       float64   `json:"soil_ph"`
	EC           float64   `json:"ec"`
	Nitrogen     float64   `json:"nitrogen"`
	Phosphorous  float64   `json:"phosphorous"`
	Potassium    float64   `json:"potassium"`
	Battery      float64   `json:"battery"`
	IsAbnormal   bool      `json:"is_abnormal"`
}
