package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// CORS lets browser front ends call the prediction routes. Tokens travel in
// the Authorization header and never in cookies, so credentials stay off and
// a "*" origin list is safe.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	handler := cors.New(cors.Options{
		AllowedOrigins: origins,
		// Uploads are multipart or JSON POSTs; everything else is a GET.
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type", requestIDHeader},
		// Rate-limited clients need Retry-After to back off.
		ExposedHeaders:   []string{requestIDHeader, "Retry-After"},
		MaxAge:           3600,
		AllowCredentials: false,
		Debug:            slog.Default().Enabled(context.Background(), slog.LevelDebug),
		Logger:           corsLogger{},
	})

	return handler.Handler
}

// corsLogger routes rs/cors decisions (rejected origins, headers) to slog
// at debug level.
type corsLogger struct{}

func (corsLogger) Printf(format string, args ...interface{}) {
	slog.Debug("cors", "decision", strings.TrimSpace(fmt.Sprintf(format, args...)))
}
