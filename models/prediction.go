package models

import (
	"time"

	"github.com/inamkj/Agriboost/fertilizer"
)

// FertilizerPrediction stores a recommendation and the inputs it was made from.
type FertilizerPrediction struct {
	ID                    uint                `json:"id" gorm:"primaryKey"`
	UserID                uint                `json:"user_id" gorm:"index;not null"`
	Temperature           float64             `json:"temperature"`
	Humidity              float64             `json:"humidity"`
	Moisture              float64             `json:"moisture"`
	SoilPH                float64             `json:"soil_ph"`
	EC                    float64             `json:"ec"`
	Nitrogen              float64             `json:"nitrogen"`
	Phosphorous           float64             `json:"phosphorous"`
	Potassium             float64             `json:"potassium"`
	SoilType              string              `json:"soil_type"`
	CropType              string              `json:"crop_type"`
	RecommendedFertilizer string              `json:"recommended_fertilizer"`
	FertilizerAmount      float64             `json:"fertilizer_amount"`
	ConfidenceScore       float64             `json:"confidence_score"`
	Details               string              `json:"recommendation_details"`
	Instructions          string              `json:"application_instructions"`
	Precautions           string              `json:"precautions"`
	AllFertilizers        []fertilizer.Option `json:"all_fertilizers" gorm:"serializer:json"`
	SensorSource          string              `json:"sensor_source"`
	CreatedAt             time.Time           `json:"created_at" gorm:"index"`
}

// DiseaseHistory stores a confident leaf diagnosis.
type DiseaseHistory struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	UserID         uint      `json:"user_id" gorm:"index;not null"`
	ImageName      string    `json:"image_name"`
	LabelIndex     int       `json:"label_index"`
	Label          string    `json:"label"`
	Confidence     float64   `json:"confidence"`
	Recommendation string    `json:"recommendation"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`
}
