package disease

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// RemoteModel calls the leaf classification service over HTTP.
type RemoteModel struct {
	baseURL string
	client  *http.Client
}

func NewRemoteModel(baseURL string, timeout time.Duration) *RemoteModel {
	return &RemoteModel{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// RemoteLoader returns a Loader that checks the model service is healthy
// before handing out the client.
func RemoteLoader(baseURL string, timeout time.Duration) Loader {
	return func(ctx context.Context) (Classifier, error) {
		m := NewRemoteModel(baseURL, timeout)
		if err := m.Ping(ctx); err != nil {
			return nil, err
		}
		return m, nil
	}
}

// Ping checks {baseURL}/health.
func (m *RemoteModel) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach model service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model service health check returned %d", resp.StatusCode)
	}
	return nil
}

// Classify posts the image as multipart form field "image" to
// {baseURL}/predict and reads {"probabilities": [...]}.
func (m *RemoteModel) Classify(ctx context.Context, image []byte, filename string) ([]float64, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(image)); err != nil {
		return nil, fmt.Errorf("failed to copy image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/predict", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model service returned error: %s", string(data))
	}

	var result struct {
		Probabilities []float64 `json:"probabilities"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return result.Probabilities, nil
}
