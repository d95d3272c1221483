package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"inmuebles_console/pkg/config"
)

// CloudinaryUploader posts files to Cloudinary's unsigned upload endpoint:
// a multipart POST carrying the file and the upload preset name.
type CloudinaryUploader struct {
	cloudName    string
	uploadPreset string
	endpoint     string
	client       *http.Client
}

func NewCloudinaryUploader(cfg config.CloudinaryConfig) *CloudinaryUploader {
	return &CloudinaryUploader{
		cloudName:    cfg.CloudName,
		uploadPreset: cfg.UploadPreset,
		endpoint:     fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", cfg.CloudName),
		client:       &http.Client{Timeout: 60 * time.Second},
	}
}

// WithEndpoint overrides the upload URL. Used by tests.
func (u *CloudinaryUploader) WithEndpoint(endpoint string) *CloudinaryUploader {
	u.endpoint = endpoint
	return u
}

func (u *CloudinaryUploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("could not build upload request: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("could not read staged file: %w", err)
	}
	if err := writer.WriteField("upload_preset", u.uploadPreset); err != nil {
		return "", fmt.Errorf("could not build upload request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("could not build upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("image upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("image upload failed: status %d", resp.StatusCode)
	}

	var result struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("could not decode upload response: %w", err)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("upload response missing secure_url")
	}

	return result.SecureURL, nil
}
