package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-med-predict/internal/tensor"
)

const maxResponseBytes = 8 << 20

// TFServingClient calls a TensorFlow Serving REST endpoint for one model.
type TFServingClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewTFServingClient(baseURL string, model string, timeout time.Duration) *TFServingClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TFServingClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type predictRequest struct {
	Instances any `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
	Error       string      `json:"error,omitempty"`
}

type modelStatusResponse struct {
	ModelVersionStatus []struct {
		Version string `json:"version"`
		State   string `json:"state"`
	} `json:"model_version_status"`
}

// Status returns nil when at least one version of the model is AVAILABLE.
func (c *TFServingClient) Status(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/v1/models/%s", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	body, err := c.do(req)
	if err != nil {
		return err
	}

	var status modelStatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return fmt.Errorf("decode model status: %w", err)
	}
	for _, v := range status.ModelVersionStatus {
		if v.State == "AVAILABLE" {
			return nil
		}
	}

	return fmt.Errorf("model %s has no available version", c.model)
}

func (c *TFServingClient) PredictProba(ctx context.Context, input tensor.Tensor) ([]float64, error) {
	return c.predict(ctx, input)
}

// PredictScalar reads the first output of a single-unit sigmoid head.
func (c *TFServingClient) PredictScalar(ctx context.Context, input tensor.Tensor) (float64, error) {
	out, err := c.predict(ctx, input)
	if err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("%w: %s returned no outputs", ErrBadOutput, c.model)
	}
	return out[0], nil
}

func (c *TFServingClient) predict(ctx context.Context, input tensor.Tensor) ([]float64, error) {
	instances, err := instancesFromTensor(input)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(predictRequest{Instances: instances})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/models/%s:predict", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var resp predictResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode predictions: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("tf serving error: %s", resp.Error)
	}
	if len(resp.Predictions) != 1 {
		return nil, fmt.Errorf("%w: %s returned %d predictions for one instance", ErrBadOutput, c.model, len(resp.Predictions))
	}

	return resp.Predictions[0], nil
}

func (c *TFServingClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tf serving %s: status %d, body: %s", req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return body, nil
}

// instancesFromTensor reshapes a (N,H,W,C) tensor into the nested row format
// TF Serving expects.
func instancesFromTensor(input tensor.Tensor) ([][][][]float32, error) {
	if len(input.Shape) != 4 || input.Shape.Size() != len(input.Data) {
		return nil, fmt.Errorf("tf serving input must be a 4-d tensor, got %s", input.Shape)
	}

	n, h, w, ch := input.Shape[0], input.Shape[1], input.Shape[2], input.Shape[3]
	out := make([][][][]float32, n)
	offset := 0
	for b := 0; b < n; b++ {
		rows := make([][][]float32, h)
		for y := 0; y < h; y++ {
			cols := make([][]float32, w)
			for x := 0; x < w; x++ {
				cols[x] = input.Data[offset : offset+ch]
				offset += ch
			}
			rows[y] = cols
		}
		out[b] = rows
	}

	return out, nil
}
