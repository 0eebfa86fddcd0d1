// Package store persists fertilizer recommendations and leaf diagnoses.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/inamkj/Agriboost/models"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// HistoryStore is append-only storage for recommendation and diagnosis
// history, keyed by user and creation time.
type HistoryStore interface {
	SavePrediction(ctx context.Context, p *models.FertilizerPrediction) error
	ListPredictions(ctx context.Context, userID uint, limit int) ([]models.FertilizerPrediction, error)
	Prediction(ctx context.Context, userID, id uint) (models.FertilizerPrediction, error)
	SaveDiagnosis(ctx context.Context, d *models.DiseaseHistory) error
	ListDiagnoses(ctx context.Context, userID uint, limit int) ([]models.DiseaseHistory, error)
}

// GormHistory is the Postgres-backed HistoryStore.
type GormHistory struct {
	db *gorm.DB
}

func NewGormHistory(db *gorm.DB) *GormHistory {
	return &GormHistory{db: db}
}

func (s *GormHistory) SavePrediction(ctx context.Context, p *models.FertilizerPrediction) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("save prediction: %w", err)
	}
	return nil
}

// ListPredictions returns the newest predictions first. A limit <= 0 means
// no limit.
func (s *GormHistory) ListPredictions(ctx context.Context, userID uint, limit int) ([]models.FertilizerPrediction, error) {
	var out []models.FertilizerPrediction
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	return out, nil
}

func (s *GormHistory) Prediction(ctx context.Context, userID, id uint) (models.FertilizerPrediction, error) {
	var p models.FertilizerPrediction
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, fmt.Errorf("get prediction: %w", err)
	}
	return p, nil
}

func (s *GormHistory) SaveDiagnosis(ctx context.Context, d *models.DiseaseHistory) error {
	if err := s.db.WithContext(ctx).Create(d).Error; err != nil {
		return fmt.Errorf("save diagnosis: %w", err)
	}
	return nil
}

func (s *GormHistory) ListDiagnoses(ctx context.Context, userID uint, limit int) ([]models.DiseaseHistory, error) {
	var out []models.DiseaseHistory
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list diagnoses: %w", err)
	}
	return out, nil
}
