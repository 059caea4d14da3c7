package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func withCapturedLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)
	return &buf
}

func TestRedactingLogger_InfoAndRedactions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := withCapturedLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(RedactingLogger(RedactOptions{MaskHeaders: []string{"X-Api-Key"}, MaskParams: []string{"session"}}))
	r.GET("/update/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	q := "title=Heat&api_key=s3cret&csrf_token=tok123&session=abc&contact=me@example.com"
	req := httptest.NewRequest(http.MethodGet, "/update/7?"+q, nil)
	req.Header.Set("Authorization", "Bearer tmdb-token")
	req.Header.Set("Cookie", "tm_csrf=topsecret")
	req.Header.Set("X-Api-Key", "shhh")
	req.Header.Set("X-Custom", "reach me at a@b.com")
	req.Header.Set(requestIDHeader, "rid-req")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	logs := buf.String()
	for _, want := range []string{
		`"level":"info"`,
		`"message":"http_request"`,
		`"path":"/update/:id"`,
		`"request_id":"rid-req"`,
		`api_key=[REDACTED]`,
		`csrf_token=[REDACTED]`,
		`session=[REDACTED]`,
		`contact=[REDACTED:email]`,
		`title=Heat`,
		`"Authorization":"[REDACTED]"`,
		`"Cookie":"[REDACTED]"`,
		`"X-Api-Key":"[REDACTED]"`,
		`"X-Custom":"reach me at [REDACTED:email]"`,
	} {
		if !strings.Contains(logs, want) {
			t.Fatalf("log missing %s\n%s", want, logs)
		}
	}
	for _, leaked := range []string{"s3cret", "tok123", "tmdb-token", "topsecret", "shhh", "me@example.com"} {
		if strings.Contains(logs, leaked) {
			t.Fatalf("log leaked %q\n%s", leaked, logs)
		}
	}
}

func TestRedactingLogger_WarnAndErrorLevels_RequestIDFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := withCapturedLogger(t)

	// No RequestID middleware: the incoming header is used as-is.
	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/warn", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/error", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	reqWarn := httptest.NewRequest(http.MethodGet, "/warn", nil)
	reqWarn.Header.Set(requestIDHeader, "rid-warn")
	r.ServeHTTP(httptest.NewRecorder(), reqWarn)

	reqErr := httptest.NewRequest(http.MethodGet, "/error", nil)
	reqErr.Header.Set(requestIDHeader, "rid-err")
	r.ServeHTTP(httptest.NewRecorder(), reqErr)

	logs := buf.String()
	if !strings.Contains(logs, `"level":"warn"`) || !strings.Contains(logs, `"request_id":"rid-warn"`) {
		t.Fatalf("warn log not found or missing request_id fallback: %s", logs)
	}
	if !strings.Contains(logs, `"level":"error"`) || !strings.Contains(logs, `"request_id":"rid-err"`) {
		t.Fatalf("error log not found or missing request_id fallback: %s", logs)
	}
}

func TestRedactingLogger_AttachesScopedLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := withCapturedLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/", func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Info().Msg("from service")
		LoggerFrom(c).Info().Msg("from handler")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "rid-scoped")
	r.ServeHTTP(httptest.NewRecorder(), req)

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if !strings.Contains(line, `"request_id":"rid-scoped"`) {
			t.Fatalf("line without request_id: %s", line)
		}
	}
	if !strings.Contains(buf.String(), "from service") || !strings.Contains(buf.String(), "from handler") {
		t.Fatalf("scoped logs missing:\n%s", buf.String())
	}
}

func TestScrubQuery(t *testing.T) {
	mask := toSet([]string{"api_key"}, nil)

	if got := scrubQuery("", mask); got != "" {
		t.Fatalf("empty query: %q", got)
	}
	if got := scrubQuery("a=%zz", mask); got != redacted {
		t.Fatalf("unparsable query should be redacted, got %q", got)
	}
	if got := scrubQuery("API_KEY=x&q=1", mask); got != "API_KEY=[REDACTED]&q=1" {
		t.Fatalf("case-insensitive mask failed: %q", got)
	}
}

func TestToSet(t *testing.T) {
	s := toSet([]string{"A"}, []string{" b ", ""})
	if len(s) != 2 {
		t.Fatalf("unexpected set %v", s)
	}
	if _, ok := s["a"]; !ok {
		t.Fatalf("expected lowercased entry")
	}
	if _, ok := s["b"]; !ok {
		t.Fatalf("expected trimmed entry")
	}
}
