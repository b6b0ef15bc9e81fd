package security

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newTestApp(cfg HeadersConfig) *fiber.App {
	app := fiber.New()
	app.Use(HeadersMiddleware(cfg))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestHeadersForJSONAPI(t *testing.T) {
	app := newTestApp(HeadersConfig{AllowedOrigins: []string{"https://deck.example.com"}})

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	csp := resp.Header.Get("Content-Security-Policy")
	if !strings.HasPrefix(csp, "default-src 'none'") {
		t.Errorf("CSP must deny by default, got %q", csp)
	}
	if strings.Contains(csp, "script-src") || strings.Contains(csp, "unsafe-inline") {
		t.Errorf("no route serves scripts, CSP should not allow any: %q", csp)
	}
	if !strings.Contains(csp, "https://deck.example.com") || !strings.Contains(csp, "wss://deck.example.com") {
		t.Errorf("connect-src must cover the origin and its websocket form, got %q", csp)
	}

	if got := resp.Header.Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if resp.Header.Get("Strict-Transport-Security") == "" {
		t.Error("HSTS missing outside development")
	}
}

func TestHeadersDevelopmentSkipsHSTS(t *testing.T) {
	app := newTestApp(HeadersConfig{IsDevelopment: true})

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.Header.Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be set in development")
	}
}
