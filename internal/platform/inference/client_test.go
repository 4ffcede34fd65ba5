package inference

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"guardx/internal/common"
	"guardx/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/models/load", func(w http.ResponseWriter, r *http.Request) {
		var req loadRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Path == "missing.pt" {
			http.Error(w, "weights not found", http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(loadResponse{ModelID: req.Name + "-handle"})
	})
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "yolo-handle", r.FormValue("model_id"))
		assert.Equal(t, "0.3", r.FormValue("conf"))
		assert.Equal(t, "0", r.FormValue("classes"))

		if f, _, err := r.FormFile("file"); assert.NoError(t, err) {
			data, _ := io.ReadAll(f)
			assert.Equal(t, []byte("jpeg-bytes"), data)
		}

		json.NewEncoder(w).Encode(predictResponse{Detections: []detection{
			{X1: 10, Y1: 20, X2: 110, Y2: 220, Confidence: 0.91, Class: 0},
		}})
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientLoadAndPredict(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL+"/", 5*time.Second)
	ctx := context.Background()

	assert.Equal(t, srv.URL, client.Endpoint())

	handle, err := client.LoadModel(ctx, "yolo", "yolov8n.pt")
	require.NoError(t, err)
	assert.Equal(t, "yolo-handle", handle)

	dets, err := client.Predict(ctx, handle, []byte("jpeg-bytes"), 0.3, []int{model.PersonClass})
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, model.Box{10, 20, 110, 220}, dets[0].Box)
	assert.InDelta(t, 0.91, dets[0].Confidence, 1e-9)

	require.NoError(t, client.CheckHealth(ctx))
}

func TestClientLoadModelFailure(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL, 5*time.Second)

	_, err := client.LoadModel(context.Background(), "custom", "missing.pt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestClientUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(url, time.Second)
	err := client.CheckHealth(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrServiceUnavailable))
}
