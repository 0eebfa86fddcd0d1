package controllers

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inamkj/Agriboost/disease"
	"github.com/inamkj/Agriboost/middlewares"
	"github.com/inamkj/Agriboost/models"
	"github.com/inamkj/Agriboost/sensors"
	"github.com/inamkj/Agriboost/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testNow = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

type fakeHistory struct {
	mu          sync.Mutex
	predictions []models.FertilizerPrediction
	diagnoses   []models.DiseaseHistory
	err         error
}

func (f *fakeHistory) SavePrediction(_ context.Context, p *models.FertilizerPrediction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	p.ID = uint(len(f.predictions) + 1)
	f.predictions = append(f.predictions, *p)
	return nil
}

func (f *fakeHistory) ListPredictions(_ context.Context, userID uint, limit int) ([]models.FertilizerPrediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []models.FertilizerPrediction
	for i := len(f.predictions) - 1; i >= 0; i-- {
		if f.predictions[i].UserID == userID {
			out = append(out, f.predictions[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeHistory) Prediction(_ context.Context, userID, id uint) (models.FertilizerPrediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.predictions {
		if p.ID == id && p.UserID == userID {
			return p, nil
		}
	}
	return models.FertilizerPrediction{}, store.ErrNotFound
}

func (f *fakeHistory) SaveDiagnosis(_ context.Context, d *models.DiseaseHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	d.ID = uint(len(f.diagnoses) + 1)
	f.diagnoses = append(f.diagnoses, *d)
	return nil
}

func (f *fakeHistory) ListDiagnoses(_ context.Context, userID uint, limit int) ([]models.DiseaseHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.DiseaseHistory
	for i := len(f.diagnoses) - 1; i >= 0; i-- {
		if f.diagnoses[i].UserID == userID {
			out = append(out, f.diagnoses[i])
		}
	}
	return out, nil
}

type fakeSource struct {
	snap sensors.Snapshot
	err  error
}

func (f fakeSource) Snapshot(context.Context) (sensors.Snapshot, error) {
	return f.snap, f.err
}

var errSourceDown = errors.New("source down")

type fakeDiagnoser struct {
	diagnosis disease.Diagnosis
	err       error
	calls     int
	gotImage  []byte
	gotName   string
}

func (f *fakeDiagnoser) Diagnose(_ context.Context, image []byte, filename string) (disease.Diagnosis, error) {
	f.calls++
	f.gotImage = image
	f.gotName = filename
	return f.diagnosis, f.err
}

// withUser mimics the auth middleware.
func withUser(userID uint, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middlewares.ContextUserID, userID)
		c.Set(middlewares.ContextRole, role)
		c.Next()
	}
}

func placeholderSource() fakeSource {
	return fakeSource{snap: sensors.Snapshot{Reading: sensors.Placeholder(testNow), Origin: sensors.OriginPlaceholder}}
}

func nan() float64 { return math.NaN() }
func inf() float64 { return math.Inf(1) }
