package controllers

import (
	"github.com/inamkj/Agriboost/models"

	"gorm.io/gorm"
)

// MigrateModels runs the database migrations
func MigrateModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserHistory{},
		&models.SensorData{},
		&models.FertilizerPrediction{},
		&models.DiseaseHistory{},
	)
}
