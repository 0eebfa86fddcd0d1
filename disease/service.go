package disease

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
)

// ErrModelUnavailable is returned when the classifier cannot be loaded.
var ErrModelUnavailable = errors.New("disease model unavailable")

// Classifier scores a leaf image, returning one probability per entry of
// Classes.
type Classifier interface {
	Classify(ctx context.Context, image []byte, filename string) ([]float64, error)
}

// Loader produces a ready Classifier.
type Loader func(ctx context.Context) (Classifier, error)

// Diagnosis is the user-facing classification result. LabelIndex is nil
// when the model was not confident enough.
type Diagnosis struct {
	LabelIndex     *int    `json:"label_index"`
	Label          string  `json:"label"`
	Confidence     float64 `json:"confidence"`
	Recommendation string  `json:"recommendation"`
}

func (d Diagnosis) Known() bool {
	return d.LabelIndex != nil
}

// Service owns the classifier. The model is loaded on first use and kept
// for the life of the service; a failed load is retried on the next call.
type Service struct {
	load      Loader
	threshold float64

	mu    sync.Mutex
	model Classifier
}

func NewService(load Loader, threshold float64) *Service {
	return &Service{load: load, threshold: threshold}
}

// Warm loads the model now instead of on the first request.
func (s *Service) Warm(ctx context.Context) error {
	_, err := s.classifier(ctx)
	return err
}

func (s *Service) classifier(ctx context.Context) (Classifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model != nil {
		return s.model, nil
	}
	model, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	log.Println("Disease model loaded")
	s.model = model
	return model, nil
}

// Diagnose classifies an image and attaches treatment advice.
func (s *Service) Diagnose(ctx context.Context, image []byte, filename string) (Diagnosis, error) {
	model, err := s.classifier(ctx)
	if err != nil {
		return Diagnosis{}, err
	}

	scores, err := model.Classify(ctx, image, filename)
	if err != nil {
		return Diagnosis{}, fmt.Errorf("classify image: %w", err)
	}
	if len(scores) == 0 {
		return Diagnosis{}, errors.New("classify image: model returned no scores")
	}

	idx := 0
	for i, p := range scores {
		if p > scores[idx] {
			idx = i
		}
	}
	prob := scores[idx]
	confidence, err := strconv.ParseFloat(strconv.FormatFloat(prob, 'f', 4, 64), 64)
	if err != nil {
		confidence = prob
	}

	if prob < s.threshold {
		return Diagnosis{
			Label:          UnknownLabel,
			Confidence:     confidence,
			Recommendation: UnclearImageAdvice,
		}, nil
	}
	if idx >= len(Classes) {
		return Diagnosis{}, fmt.Errorf("classify image: label index %d out of range", idx)
	}

	class := Classes[idx]
	return Diagnosis{
		LabelIndex:     &idx,
		Label:          class.Name,
		Confidence:     confidence,
		Recommendation: class.Recommendation,
	}, nil
}
