package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"guardx/internal/common"
	"guardx/internal/domain/model"
)

// Client talks to the YOLO inference server. The server owns the model
// weights; the client only names them and ships image bytes.
//
//	POST /models/load   {"name", "path"}              -> {"model_id"}
//	POST /predict       multipart file, model_id, conf, classes -> {"detections": [...]}
//	GET  /health
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Endpoint is the base URL of the inference server.
func (c *Client) Endpoint() string {
	return c.baseURL
}

type loadRequest struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type loadResponse struct {
	ModelID string `json:"model_id"`
}

type detection struct {
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Confidence float64 `json:"confidence"`
	Class      int     `json:"class"`
}

type predictResponse struct {
	Detections []detection `json:"detections"`
}

// LoadModel asks the server to load the weights at path and returns the
// handle used for later Predict calls.
func (c *Client) LoadModel(ctx context.Context, name, path string) (string, error) {
	payload, err := json.Marshal(loadRequest{Name: name, Path: path})
	if err != nil {
		return "", fmt.Errorf("marshal load request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/models/load", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result loadResponse
	if err := c.do(req, &result); err != nil {
		return "", fmt.Errorf("load model %s: %w", name, err)
	}
	if result.ModelID == "" {
		return "", fmt.Errorf("load model %s: empty model_id in response", name)
	}
	return result.ModelID, nil
}

// Predict runs one inference call. image must be JPEG-encoded.
func (c *Client) Predict(ctx context.Context, handle string, image []byte, conf float64, classes []int) ([]model.RawDetection, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(image)); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}
	fields := map[string]string{
		"model_id": handle,
		"conf":     strconv.FormatFloat(conf, 'f', -1, 64),
		"classes":  joinInts(classes),
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result predictResponse
	if err := c.do(req, &result); err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	out := make([]model.RawDetection, 0, len(result.Detections))
	for _, d := range result.Detections {
		out = append(out, model.RawDetection{
			Box:        model.Box{d.X1, d.Y1, d.X2, d.Y2},
			Confidence: d.Confidence,
			Class:      d.Class,
		})
	}
	return out, nil
}

// CheckHealth reports whether the inference server is reachable.
func (c *Client) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %v: %w", err, common.ErrServiceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("inference server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
