package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.ServerPort)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, int64(16<<20), cfg.MaxUploadSize)
	assert.Equal(t, "threshold", cfg.MoleModel.Kind)
	assert.Equal(t, 0.37, cfg.MoleModel.Threshold)
	assert.Equal(t, []string{"Benign", "Malignant"}, cfg.MoleModel.Labels)
	assert.Equal(t, []string{"Normal", "Cataract", "Glaucoma", "Diabetic Retinopathy"}, cfg.EyeModel.Labels)
	assert.Equal(t, "admin", cfg.DefaultAdminUsername)
	assert.Equal(t, "01-01-2025", cfg.DefaultAdminDOB)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("MOLE_THRESHOLD", "0.5")
	t.Setenv("MOLE_MODEL_KIND", "multiclass")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("RATE_LIMIT_RPM", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 0.5, cfg.MoleModel.Threshold)
	assert.Equal(t, "multiclass", cfg.MoleModel.Kind)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 120, cfg.RateLimitRPM)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":    {"JWT_SECRET": ""},
		"unknown kind":      {"EYE_MODEL_KIND": "regression"},
		"threshold labels":  {"MOLE_LABELS": "a,b,c"},
		"threshold range":   {"MOLE_THRESHOLD": "1.5"},
		"image over upload": {"MAX_UPLOAD_SIZE": "100", "MAX_IMAGE_BYTES": "200"},
		"bad proxy range":   {"TRUSTED_PROXIES": "10.0.0.0/33"},
		"bad proxy address": {"TRUSTED_PROXIES": "10.0.0.1, proxy.local"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "s3cret")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate_KafkaNeedsTopic(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := Load()
	require.NoError(t, err)

	cfg.KafkaBrokers = []string{"k:9092"}
	cfg.KafkaTopic = " "
	assert.Error(t, cfg.Validate())
}

func TestParseTrustedProxies(t *testing.T) {
	prefixes, err := ParseTrustedProxies([]string{"10.0.0.0/8", "192.0.2.10", "::ffff:198.51.100.1", "2001:db8::/32"})
	require.NoError(t, err)
	require.Len(t, prefixes, 4)

	assert.Equal(t, "10.0.0.0/8", prefixes[0].String())
	assert.Equal(t, "192.0.2.10/32", prefixes[1].String())
	assert.Equal(t, "198.51.100.1/32", prefixes[2].String())
	assert.Equal(t, "2001:db8::/32", prefixes[3].String())

	empty, err := ParseTrustedProxies(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLoad_TrustedProxies(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies)
	assert.Len(t, cfg.TrustedProxyPrefixes(), 2)
}
