package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inmuebles_console/pkg/config"
)

func testUploader(endpoint string) *CloudinaryUploader {
	return NewCloudinaryUploader(config.CloudinaryConfig{
		CloudName:    "test-cloud",
		UploadPreset: "Test_Preset",
	}).WithEndpoint(endpoint)
}

func TestCloudinaryUploadSendsPresetAndFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Test_Preset", r.FormValue("upload_preset"))

		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "casa.jpg", header.Filename)

		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "jpeg-bytes", string(data))

		w.Write([]byte(`{"secure_url":"https://res.cloudinary.com/test-cloud/image/upload/v1/casa.jpg"}`))
	}))
	defer server.Close()

	url, err := testUploader(server.URL).Upload(context.Background(), "casa.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/test-cloud/image/upload/v1/casa.jpg", url)
}

func TestCloudinaryUploadFailsOnBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"Upload preset not found"}}`, http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := testUploader(server.URL).Upload(context.Background(), "casa.jpg", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image upload failed")
}

func TestCloudinaryUploadFailsWithoutSecureURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := testUploader(server.URL).Upload(context.Background(), "casa.jpg", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestCloudinaryDefaultEndpoint(t *testing.T) {
	u := NewCloudinaryUploader(config.CloudinaryConfig{CloudName: "dcm5pug0v", UploadPreset: "Inmuebles_Upload"})
	assert.Equal(t, "https://api.cloudinary.com/v1_1/dcm5pug0v/image/upload", u.endpoint)
}
