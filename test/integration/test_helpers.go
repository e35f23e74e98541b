//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-med-predict/internal/app"
	"go-med-predict/internal/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

// newFakeServing stands in for a TensorFlow Serving endpoint hosting the
// "skin_lesion" and "eye_disease" models.
func newFakeServing(t *testing.T) *httptest.Server {
	t.Helper()

	outputs := map[string][]float64{
		"skin_lesion": {0.81},
		"eye_disease": {0.05, 0.15, 0.7, 0.1},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models/", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/v1/models/")
		w.Header().Set("Content-Type", "application/json")

		if model, ok := strings.CutSuffix(name, ":predict"); ok {
			out, known := outputs[model]
			if !known || r.Method != http.MethodPost {
				http.Error(w, `{"error":"unknown model"}`, http.StatusNotFound)
				return
			}
			var req struct {
				Instances [][][][]float32 `json:"instances"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Instances) != 1 {
				http.Error(w, `{"error":"bad instances"}`, http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"predictions": [][]float64{out}})
			return
		}

		if _, known := outputs[name]; !known {
			http.Error(w, `{"error":"unknown model"}`, http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"model_version_status":[{"version":"1","state":"AVAILABLE"}]}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func writeCycleArtifact(t *testing.T) string {
	t.Helper()

	artifact := `{
  "name": "cycle",
  "features": ["cycle_length", "period_length", "age"],
  "outputs": [
    {"name": "next_cycle_length", "weights": [0.9, 0.1, 0.02], "intercept": 2.0},
    {"name": "next_period_length", "weights": [0.0, 0.8, 0.0], "intercept": 1.0}
  ]
}`
	path := filepath.Join(t.TempDir(), "cycle.json")
	require.NoError(t, os.WriteFile(path, []byte(artifact), 0o600))
	return path
}

func testConfig(t *testing.T, servingURL string, databaseURL string) *config.Config {
	t.Helper()

	return &config.Config{
		ServerPort:           "0",
		RequestTimeout:       30 * time.Second,
		LogLevel:             "error",
		LogFormat:            "text",
		DatabaseURL:          databaseURL,
		DBMaxConns:           5,
		DBMinConns:           1,
		JWTSecret:            "integration-secret",
		TokenTTL:             time.Hour,
		BcryptCost:           4,
		DefaultAdminUsername: "admin",
		DefaultAdminPassword: "admin123",
		DefaultAdminDOB:      "01-01-2025",
		CORSOrigins:          []string{"*"},
		RateLimitRPM:         1000,
		AuthRateLimitRPM:     1000,
		MaxUploadSize:        16 << 20,
		MaxImageBytes:        12 << 20,
		InferenceURL:         servingURL,
		InferenceTimeout:     5 * time.Second,
		MoleModel: config.ImageModel{
			Name: "mole", RemoteName: "skin_lesion", Kind: "threshold",
			Labels: []string{"Benign", "Malignant"}, Threshold: 0.37,
		},
		EyeModel: config.ImageModel{
			Name: "eye", RemoteName: "eye_disease", Kind: "multiclass",
			Labels: []string{"Normal", "Cataract", "Glaucoma", "Diabetic Retinopathy"}, Threshold: 0.5,
		},
		CycleModelArtifact: writeCycleArtifact(t),
		S3Region:           "us-east-1",
	}
}

func newAppServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()

	application, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(application.Close)

	server := httptest.NewServer(application.Handler())
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method string, url string, token string, payload any) (*http.Response, envelope) {
	t.Helper()

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func login(t *testing.T, baseURL string, username string, password string) string {
	t.Helper()

	resp, env := doJSON(t, http.MethodPost, baseURL+"/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

func redSquareBase64(t *testing.T) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
