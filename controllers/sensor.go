package controllers

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/inamkj/Agriboost/middlewares"
	"github.com/inamkj/Agriboost/models"
	"github.com/inamkj/Agriboost/sensors"
	"github.com/inamkj/Agriboost/utils"
	"gorm.io/gorm"
)

const csvTimeLayout = "2006-01-02 15:04:05"

func isAdmin(c *gin.Context) bool {
	return c.GetString(middlewares.ContextRole) == models.RoleAdmin
}

// scoped restricts q to the caller's rows unless the caller is an admin.
// Admins may narrow to one user with ?user_id=.
func scoped(c *gin.Context, q *gorm.DB) *gorm.DB {
	if isAdmin(c) {
		if requested := c.Query("user_id"); requested != "" {
			return q.Where("user_id = ?", requested)
		}
		return q
	}
	userID, _ := middlewares.UserID(c)
	return q.Where("user_id = ?", userID)
}

// PersistReading stores a normalised reading and pushes it to websocket
// clients. userID is nil for readings that arrive over MQTT.
func (h *Handler) PersistReading(deviceID string, userID *uint, r sensors.Reading) (models.SensorData, error) {
	data := utils.SensorRecord(r, deviceID, userID)
	if err := h.DB.Create(&data).Error; err != nil {
		return data, fmt.Errorf("save sensor data: %w", err)
	}

	h.broadcast(EventSensorUpdate, data)
	if data.IsAbnormal && h.Hub != nil {
		h.Hub.Notify(data)
	}
	return data, nil
}

// OnDeviceReading persists readings delivered by the MQTT subscriber.
func (h *Handler) OnDeviceReading(deviceID string, r sensors.Reading) {
	if _, err := h.PersistReading(deviceID, nil, r); err != nil {
		log.Printf("MQTT: %v", err)
	}
}

// ReceiveData accepts a device push in any of the supported payload shapes.
func (h *Handler) ReceiveData(c *gin.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var payload any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}
	record, ok := sensors.ExtractRecord(payload)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}

	deviceID := c.Query("device_id")
	if id, ok := record["device_id"].(string); ok && id != "" {
		deviceID = id
	}

	reading := sensors.Normalize(record, h.now())
	h.Latest.Set(reading, sensors.OriginIngest)

	data, err := h.PersistReading(deviceID, &userID, reading)
	if err != nil {
		log.Printf("ingest: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save sensor data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Data received successfully",
		"record":  data,
		"alerts":  reading.Alerts,
	})
}

// GetFeed serves the latest reading. It needs no authentication.
func (h *Handler) GetFeed(c *gin.Context) {
	snap, err := h.Sensors.Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":        "Failed to fetch sensor readings",
			"detail":       err.Error(),
			"sensors":      []sensors.Reading{},
			"last_updated": nil,
			"source":       "error",
		})
		return
	}
	c.JSON(http.StatusOK, snap.Feed())
}

// GetHistory returns sensor data history.
func (h *Handler) GetHistory(c *gin.Context) {
	q := scoped(c, h.DB.Order("timestamp desc"))
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		q = q.Limit(limit)
	}

	var records []models.SensorData
	if err := q.Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch data"})
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetAbnormalCount returns the count of abnormal sensor data.
func (h *Handler) GetAbnormalCount(c *gin.Context) {
	var count int64
	q := scoped(c, h.DB.Model(&models.SensorData{}).Where("is_abnormal = ?", true))
	if err := q.Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count records"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// CountAbnormal is the hub's per-user abnormal counter.
func (h *Handler) CountAbnormal(userID uint) int64 {
	var count int64
	h.DB.Model(&models.SensorData{}).
		Where("user_id = ? AND is_abnormal = ?", userID, true).
		Count(&count)
	return count
}

// GetAbnormalHistory returns abnormal sensor data records.
func (h *Handler) GetAbnormalHistory(c *gin.Context) {
	var records []models.SensorData
	q := scoped(c, h.DB.Where("is_abnormal = ?", true))
	if err := q.Order("timestamp desc").Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	response := make([]gin.H, 0, len(records))
	for _, record := range records {
		response = append(response, gin.H{
			"id":        record.ID,
			"timestamp": record.Timestamp.Format(csvTimeLayout),
			"type":      utils.GetAbnormalType(record),
		})
	}
	c.JSON(http.StatusOK, response)
}

// DownloadCSV sends sensor data as a CSV file.
func (h *Handler) DownloadCSV(c *gin.Context) {
	var records []models.SensorData
	if err := scoped(c, h.DB.Order("timestamp desc")).Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch data"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=sensor_data.csv")
	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{
		"timestamp", "device_id", "temperature", "humidity", "soil_moisture",
		"soil_ph", "ec", "nitrogen", "phosphorous", "potassium", "battery", "is_abnormal",
	})
	for _, r := range records {
		writer.Write([]string{
			r.Timestamp.Format(csvTimeLayout),
			r.DeviceID,
			fmt.Sprintf("%.2f", r.Temperature),
			fmt.Sprintf("%.2f", r.Humidity),
			fmt.Sprintf("%.2f", r.SoilMoisture),
			fmt.Sprintf("%.2f", r.SoilPH),
			fmt.Sprintf("%.2f", r.EC),
			fmt.Sprintf("%.2f", r.Nitrogen),
			fmt.Sprintf("%.2f", r.Phosphorous),
			fmt.Sprintf("%.2f", r.Potassium),
			fmt.Sprintf("%.0f", r.Battery),
			strconv.FormatBool(r.IsAbnormal),
		})
	}
}

// DeleteRecord deletes one of the caller's records. Admins may delete any.
func (h *Handler) DeleteRecord(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record id"})
		return
	}

	var record models.SensorData
	if err := scoped(c, h.DB).First(&record, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}

	if err := h.DB.Delete(&record).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete record"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Record deleted successfully"})
}

// DeleteMyRecords allows users to delete all their own sensor data records
func (h *Handler) DeleteMyRecords(c *gin.Context) {
	userID, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result := h.DB.Where("user_id = ?", userID).Delete(&models.SensorData{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete your records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       fmt.Sprintf("Successfully deleted all %d records for your account", result.RowsAffected),
		"deleted_count": result.RowsAffected,
	})
}
