package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"sitfit-api/internal/domain/model"
	"sitfit-api/internal/domain/ports/adapter"
)

var _ adapter.ImageGenerator = (*MiragicGenerator)(nil)

// MiragicGenerator submits a multipart try-on job and polls until it settles.
type MiragicGenerator struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	pollInterval time.Duration
	pollAttempts int
}

func NewMiragicGenerator(apiKey, baseURL string, pollInterval time.Duration, pollAttempts int) (*MiragicGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("miragic: empty api key")
	}
	if baseURL == "" {
		baseURL = "https://backend.miragic.ai"
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if pollAttempts <= 0 {
		pollAttempts = 30
	}
	return &MiragicGenerator{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       &http.Client{Timeout: 60 * time.Second},
		pollInterval: pollInterval,
		pollAttempts: pollAttempts,
	}, nil
}

func (m *MiragicGenerator) Name() string { return "miragic" }

type miragicJob struct {
	Status          string `json:"status"`
	ProcessedURL    string `json:"processedUrl"`
	ResultImagePath string `json:"resultImagePath"`
	ID              string `json:"id"`
	JobID           string `json:"jobId"`
	ErrorMessage    string `json:"errorMessage"`
}

type miragicEnvelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    miragicJob `json:"data"`
}

func (j miragicJob) url() string {
	if j.ProcessedURL != "" {
		return j.ProcessedURL
	}
	return j.ResultImagePath
}

func (m *MiragicGenerator) Generate(ctx context.Context, in model.TryOnInput) (*adapter.GenerationResult, error) {
	body, contentType, err := buildForm(in)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/api/v1/virtual-try-on", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-API-Key", m.apiKey)

	env, err := m.do(req)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("miragic: %s", orDefault(env.Message, "unsuccessful response"))
	}

	switch strings.ToUpper(env.Data.Status) {
	case "COMPLETED":
		return &adapter.GenerationResult{ImageURL: env.Data.url(), RequestID: env.Data.ID}, nil
	case "FAILED":
		return nil, fmt.Errorf("miragic: %s", orDefault(env.Data.ErrorMessage, "job failed"))
	}

	jobID := env.Data.JobID
	if jobID == "" {
		jobID = env.Data.ID
	}
	if jobID == "" {
		return nil, errors.New("miragic: no job id in response")
	}
	return m.poll(ctx, jobID)
}

// poll checks the job every pollInterval. Transient errors count as an attempt.
func (m *MiragicGenerator) poll(ctx context.Context, jobID string) (*adapter.GenerationResult, error) {
	var lastErr error
	for attempt := 0; attempt < m.pollAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/api/v1/virtual-try-on/"+jobID, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-API-Key", m.apiKey)

		env, err := m.do(req)
		if err == nil {
			switch strings.ToUpper(env.Data.Status) {
			case "COMPLETED":
				return &adapter.GenerationResult{ImageURL: env.Data.url(), RequestID: jobID}, nil
			case "FAILED":
				return nil, fmt.Errorf("miragic: %s", orDefault(env.Data.ErrorMessage, "job failed during processing"))
			}
		} else {
			lastErr = err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.pollInterval):
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("miragic: timeout waiting for job %s: %w", jobID, lastErr)
	}
	return nil, fmt.Errorf("miragic: timeout waiting for job %s", jobID)
}

func (m *MiragicGenerator) do(req *http.Request) (*miragicEnvelope, error) {
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var env miragicEnvelope
	_ = json.Unmarshal(raw, &env)
	if resp.StatusCode/100 != 2 {
		return nil, statusError(resp.StatusCode, env.Message)
	}
	if len(raw) == 0 {
		return nil, errors.New("miragic: empty response")
	}
	return &env, nil
}

func statusError(code int, msg string) error {
	switch {
	case code == http.StatusUnauthorized:
		return errors.New("miragic: invalid api key")
	case code == http.StatusPaymentRequired:
		return errors.New("miragic: provider account is out of credits")
	case code == http.StatusBadRequest:
		return fmt.Errorf("miragic: bad request: %s", orDefault(msg, "check the images"))
	case code == http.StatusTooManyRequests:
		return errors.New("miragic: rate limited")
	case code >= 500:
		return fmt.Errorf("miragic: server error %d", code)
	default:
		return fmt.Errorf("miragic: unexpected status %d", code)
	}
}

func buildForm(in model.TryOnInput) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("garmentType", string(in.GarmentType)); err != nil {
		return nil, "", err
	}
	parts := []struct {
		field, file string
		img         *model.Image
	}{
		{"humanImage", "human_image.jpg", &in.Model},
		{"clothImage", "cloth_image.jpg", &in.Outfit},
	}
	if in.GarmentType == model.GarmentComb && in.Bottom != nil {
		parts = append(parts, struct {
			field, file string
			img         *model.Image
		}{"bottomClothImage", "bottom_cloth_image.jpg", in.Bottom})
	}
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, p.field, p.file))
		h.Set("Content-Type", orDefault(p.img.ContentType, "image/jpeg"))
		fw, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := fw.Write(p.img.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
