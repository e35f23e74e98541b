package model

import "time"

// PredictionResult is the response of an image prediction route.
type PredictionResult struct {
	Model         string             `json:"model"`
	Prediction    string             `json:"prediction"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities"`
	UserID        string             `json:"user_id"`
	Timestamp     time.Time          `json:"timestamp"`
}

// CycleResult is the response of the tabular cycle prediction route.
type CycleResult struct {
	Model     string             `json:"model"`
	Result    map[string]float64 `json:"result"`
	UserID    string             `json:"user_id"`
	Timestamp time.Time          `json:"timestamp"`
	InputData map[string]float64 `json:"input_data"`
}

type HealthStatus struct {
	Status       string    `json:"status"`
	Database     string    `json:"database"`
	ModelsLoaded []string  `json:"models_loaded"`
	Timestamp    time.Time `json:"timestamp"`
}

type ServiceInfo struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}
