package utils

import (
	"github.com/inamkj/Agriboost/models"
	"github.com/inamkj/Agriboost/sensors"
)

// CheckAbnormality determines whether the sensor data is abnormal.
func CheckAbnormality(data models.SensorData) bool {
	return GetAbnormalType(data) != ""
}

// GetAbnormalType names the first reading outside its field alarm range,
// or "" when every reading is in range.
func GetAbnormalType(record models.SensorData) string {
	if record.Temperature < 10 || record.Temperature > 40 {
		return "Temperature"
	}
	if record.SoilPH < 5 || record.SoilPH > 8 {
		return "Soil pH"
	}
	if record.SoilMoisture < 30 {
		return "Soil Moisture"
	}
	return ""
}

// SensorRecord converts a normalised reading into a row for storage.
func SensorRecord(r sensors.Reading, deviceID string, userID *uint) models.SensorData {
	data := models.SensorData{
		UserID:       userID,
		DeviceID:     deviceID,
		Label:        r.Label,
		Timestamp:    r.Timestamp,
		Temperature:  r.Temperature,
		Humidity:     r.Humidity,
		SoilMoisture: r.SoilMoisture,
		SoilPH:       r.SoilPH,
		EC:           r.EC,
		Nitrogen:     r.Nitrogen,
		Phosphorous:  r.Phosphorous,
		Potassium:    r.Potassium,
		Battery:      r.Battery,
	}
	data.IsAbnormal = CheckAbnormality(data)
	return data
}
