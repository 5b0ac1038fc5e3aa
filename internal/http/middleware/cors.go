package middleware

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
}

// CORS reads its allowed origin list from CORS_ALLOWED_ORIGINS (a
// comma-separated list) so a deployment can point this at its own
// frontend without a code change, falling back to common local dev
// ports when unset.
func CORS() gin.HandlerFunc {
	origins := defaultAllowedOrigins
	if raw := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); raw != "" {
		var parsed []string
		for _, o := range strings.Split(raw, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				parsed = append(parsed, o)
			}
		}
		if len(parsed) > 0 {
			origins = parsed
		}
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Account-Id", "X-Request-Id", "Last-Event-ID"},
		AllowCredentials: true,
	})
}
