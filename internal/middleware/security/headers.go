package security

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

type HeadersConfig struct {
	AllowedOrigins []string
	IsDevelopment  bool
}

// HeadersMiddleware sets response headers for a JSON API that also
// serves a websocket endpoint. No route renders HTML, so the policy
// denies every source class except the connect targets browser clients
// need for fetch and for the /ws upgrade.
func HeadersMiddleware(cfg HeadersConfig) fiber.Handler {
	csp := "default-src 'none'; " +
		"connect-src 'self'" + websocketSources(cfg.AllowedOrigins) + "; " +
		"frame-ancestors 'none'; " +
		"base-uri 'none'"

	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "no-referrer")
		c.Set("Content-Security-Policy", csp)

		// Responses carry session-scoped product data; never cache them.
		c.Set("Cache-Control", "no-store")

		if !cfg.IsDevelopment {
			c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		return c.Next()
	}
}

// websocketSources widens connect-src with the ws/wss counterparts of
// each allowed origin so browser clients can open the socket.
func websocketSources(origins []string) string {
	var b strings.Builder
	for _, origin := range origins {
		b.WriteString(" ")
		b.WriteString(origin)
		if rest, ok := strings.CutPrefix(origin, "http"); ok {
			b.WriteString(" ws")
			b.WriteString(rest)
		}
	}
	return b.String()
}
