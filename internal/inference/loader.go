package inference

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go-med-predict/internal/tensor"
)

// ImageModelConfig describes one image route's model.
type ImageModelConfig struct {
	// Name is the registry key, e.g. "mole".
	Name string
	// RemoteName is the model name on the serving endpoint.
	RemoteName string
	Kind       string
	Labels     []string
	Threshold  float64
}

type LoadConfig struct {
	ServingURL     string
	ServingTimeout time.Duration
	InputShape     tensor.Shape
	Images         []ImageModelConfig
	// TabularArtifacts are locations of linear model artifacts.
	TabularArtifacts []string
}

// remoteModel is what a serving backend must offer to back either adapter.
type remoteModel interface {
	ClassPredictor
	ScalarPredictor
	Status(ctx context.Context) error
}

// Loader builds the registry once at startup.
type Loader struct {
	artifacts *ArtifactStore
	newRemote func(baseURL, model string, timeout time.Duration) remoteModel
}

func NewLoader(artifacts *ArtifactStore) *Loader {
	return &Loader{
		artifacts: artifacts,
		newRemote: func(baseURL, model string, timeout time.Duration) remoteModel {
			return NewTFServingClient(baseURL, model, timeout)
		},
	}
}

// Load never fails as a whole: every model that cannot be loaded is logged
// and left out, and its route answers as unavailable.
func (l *Loader) Load(ctx context.Context, cfg LoadConfig) *Registry {
	images := make([]Model, 0, len(cfg.Images))
	for _, mc := range cfg.Images {
		m, err := l.loadImageModel(ctx, cfg, mc)
		if err != nil {
			slog.Warn("model not loaded", "model", mc.Name, "error", err)
			continue
		}
		slog.Info("model loaded", "model", mc.Name, "kind", mc.Kind, "remote", mc.RemoteName)
		images = append(images, m)
	}

	tabular := make([]TabularModel, 0, len(cfg.TabularArtifacts))
	for _, location := range cfg.TabularArtifacts {
		m, err := l.loadTabular(ctx, location)
		if err != nil {
			slog.Warn("tabular model not loaded", "artifact", location, "error", err)
			continue
		}
		slog.Info("model loaded", "model", m.Name(), "features", m.Features())
		tabular = append(tabular, m)
	}

	return NewRegistry(images, tabular)
}

func (l *Loader) loadImageModel(ctx context.Context, cfg LoadConfig, mc ImageModelConfig) (Model, error) {
	if cfg.ServingURL == "" {
		return nil, fmt.Errorf("no inference endpoint configured")
	}

	remoteName := mc.RemoteName
	if remoteName == "" {
		remoteName = mc.Name
	}
	timeout := cfg.ServingTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	remote := l.newRemote(cfg.ServingURL, remoteName, timeout)

	statusCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := remote.Status(statusCtx); err != nil {
		return nil, fmt.Errorf("status check %s: %w", remoteName, err)
	}

	switch mc.Kind {
	case KindThreshold:
		return NewThresholdAdapter(mc.Name, cfg.InputShape, mc.Labels, mc.Threshold, remote)
	case KindMultiClass, "":
		return NewMultiClassAdapter(mc.Name, cfg.InputShape, mc.Labels, remote)
	default:
		return nil, fmt.Errorf("unknown model kind %q", mc.Kind)
	}
}

func (l *Loader) loadTabular(ctx context.Context, location string) (TabularModel, error) {
	if l.artifacts == nil {
		return nil, fmt.Errorf("no artifact store configured")
	}

	rc, err := l.artifacts.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return DecodeLinearModel(rc)
}
