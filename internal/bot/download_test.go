package bot

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func serve(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestDownloadFromTelegramFileID(t *testing.T) {
	var handlerCalled bool
	ts := serve(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stamp.jpeg" {
			t.Errorf("invalid request to test server: %s %s", r.Method, r.URL.Path)
			return
		}
		handlerCalled = true
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("123"))
	})

	getFileDirectURL := func(fileID string) (string, error) {
		return fmt.Sprintf("%s/%s.jpeg", ts.URL, fileID), nil
	}

	data, mimeType, err := NewImageDownloader().DownloadFromTelegramFileID(context.Background(), getFileDirectURL, "stamp")
	require.NoError(t, err)
	assert.Equal(t, []byte("123"), data)
	assert.Equal(t, "image/jpeg", mimeType)
	assert.True(t, handlerCalled)
}

func TestDownloadFromTelegramFileID_URLResolutionError(t *testing.T) {
	getFileDirectURL := func(fileID string) (string, error) {
		return "", fmt.Errorf("failed to get URL")
	}

	_, _, err := NewImageDownloader().DownloadFromTelegramFileID(context.Background(), getFileDirectURL, "stamp")
	assert.ErrorContains(t, err, "failed to get file URL")
}

func TestDownloadFromURL_SniffsOctetStream(t *testing.T) {
	ts := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(pngHeader)
	})

	data, mimeType, err := NewImageDownloader().DownloadFromURL(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
	assert.Equal(t, "image/png", mimeType)
}

func TestDownloadFromURL_ContentTypeParameters(t *testing.T) {
	ts := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/webp; charset=binary")
		w.Write([]byte("webp"))
	})

	_, mimeType, err := NewImageDownloader().DownloadFromURL(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", mimeType)
}

func TestDownloadFromURL_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		maxSize int64
		wantErr string
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantErr: "status 404",
		},
		{
			name: "html page",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.Write([]byte("<html>not an image</html>"))
			},
			wantErr: "invalid content type",
		},
		{
			name: "body over limit",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "image/jpeg")
				w.Write(make([]byte, 100))
			},
			maxSize: 50,
			wantErr: "too large",
		},
		{
			name: "content length over limit",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "image/jpeg")
				w.Header().Set("Content-Length", "999999999")
				w.WriteHeader(http.StatusOK)
			},
			maxSize: 1000,
			wantErr: "too large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := serve(t, tt.handler)
			d := NewImageDownloader()
			if tt.maxSize > 0 {
				d = d.WithMaxSize(tt.maxSize)
			}
			_, _, err := d.DownloadFromURL(context.Background(), ts.URL)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDownloadFromURL_ContextCanceled(t *testing.T) {
	ts := serve(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should have been canceled")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewImageDownloader().DownloadFromURL(ctx, ts.URL)
	assert.Error(t, err)
}
