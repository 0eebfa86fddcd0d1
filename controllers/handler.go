package controllers

import (
	"context"
	"time"

	"github.com/inamkj/Agriboost/disease"
	"github.com/inamkj/Agriboost/middlewares"
	"github.com/inamkj/Agriboost/sensors"
	"github.com/inamkj/Agriboost/store"
	"gorm.io/gorm"
)

// Diagnoser classifies leaf images.
type Diagnoser interface {
	Diagnose(ctx context.Context, image []byte, filename string) (disease.Diagnosis, error)
}

// Handler carries the dependencies shared by the HTTP handlers.
type Handler struct {
	DB       *gorm.DB
	Auth     *middlewares.Auth
	History  store.HistoryStore
	Sensors  sensors.Source
	Latest   *sensors.Latest
	Disease  Diagnoser
	Hub      *Hub
	Location *time.Location

	// MaxUploadBytes caps disease image uploads.
	MaxUploadBytes int64
}

func (h *Handler) now() time.Time {
	if h.Location == nil {
		return time.Now()
	}
	return time.Now().In(h.Location)
}

func (h *Handler) broadcast(event string, data any) {
	if h.Hub != nil {
		h.Hub.Broadcast(event, data)
	}
}
