package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logAdapter "github.com/ngt-labs/coughdx/internal/adapters/log"
	"github.com/ngt-labs/coughdx/internal/domain"
)

func newTestUploader(url string) *Uploader {
	return NewUploader(UploaderConfig{ServerURL: url, Theme: "ocean", UserAgent: "coughdx/test"},
		http.DefaultClient, logAdapter.NewNoopLogger())
}

func TestUpload_SendsMultipartClip(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, DefaultUploadPath, r.URL.Path)
		assert.Equal(t, "coughdx/test", r.Header.Get("User-Agent"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, hdr, err := r.FormFile(AudioField)
		require.NoError(t, err)
		defer file.Close()
		data, err := io.ReadAll(file)
		require.NoError(t, err)

		assert.Equal(t, "RIFFdata", string(data))
		assert.Equal(t, "recording.wav", hdr.Filename)
		assert.Equal(t, domain.WAVContentType, hdr.Header.Get("Content-Type"))
		assert.Equal(t, "ocean", r.FormValue(ThemeField))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"diagnosis_result":{"predicted_class":"Khỏe mạnh","confidence":"92%"},"filename":"a.wav"}`)
	}))
	defer ts.Close()

	resp, err := newTestUploader(ts.URL).Upload(context.Background(), domain.Blob{Data: []byte("RIFFdata")})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	require.NotNil(t, resp.Diagnosis)
	assert.Equal(t, "Khỏe mạnh", resp.Diagnosis.PredictedClass)
	assert.Equal(t, "92%", resp.Diagnosis.Confidence)
	assert.Equal(t, "a.wav", resp.Filename)
}

func TestUpload_DecodesFailureBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false}`)
	}))
	defer ts.Close()

	resp, err := newTestUploader(ts.URL).Upload(context.Background(), domain.Blob{Data: []byte("x")})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, domain.OutcomeAnalysisFailed, resp.Outcome().Kind)
}

func TestUpload_NonSuccessStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"server failure"}`)
	}))
	defer ts.Close()

	_, err := newTestUploader(ts.URL).Upload(context.Background(), domain.Blob{Data: []byte("x")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUploadStatus))
	assert.Contains(t, err.Error(), "500")
}

func TestUpload_InvalidJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>oops</html>`)
	}))
	defer ts.Close()

	_, err := newTestUploader(ts.URL).Upload(context.Background(), domain.Blob{Data: []byte("x")})
	assert.ErrorIs(t, err, domain.ErrInvalidResponse)
}

func TestUpload_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, err := newTestUploader(url).Upload(context.Background(), domain.Blob{Data: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send request")
}

func TestUpload_OmitsEmptyTheme(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, ok := r.MultipartForm.Value[ThemeField]
		assert.False(t, ok)
		_, _ = io.WriteString(w, `{"success":true,"diagnosis_result":"Khỏe mạnh"}`)
	}))
	defer ts.Close()

	u := NewUploader(UploaderConfig{ServerURL: ts.URL}, http.DefaultClient, logAdapter.NewNoopLogger())
	resp, err := u.Upload(context.Background(), domain.Blob{Data: []byte("x")})
	require.NoError(t, err)
	require.NotNil(t, resp.Diagnosis)
	assert.Equal(t, domain.HealthyLabel, resp.Diagnosis.PredictedClass)
}
