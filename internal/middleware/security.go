package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/msa-market-engine/pkg/config"
)

// SecurityHeadersMiddleware adds comprehensive security headers to all responses
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Prevent clickjacking attacks
		c.Header("X-Frame-Options", "DENY")

		// Prevent MIME-type confusion attacks
		c.Header("X-Content-Type-Options", "nosniff")

		// Legacy XSS filter for older clients
		c.Header("X-XSS-Protection", "1; mode=block")

		// Control referrer information
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Content Security Policy for API endpoints
		csp := "default-src 'none'; " +
			"script-src 'none'; " +
			"style-src 'none'; " +
			"img-src 'none'; " +
			"connect-src 'self'; " +
			"font-src 'none'; " +
			"object-src 'none'; " +
			"media-src 'none'; " +
			"frame-src 'none'; " +
			"base-uri 'none'; " +
			"form-action 'none'"
		c.Header("Content-Security-Policy", csp)

		// Analysis results depend on uploaded datasets, never cache them
		c.Header("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")

		// Remove server header to avoid information disclosure
		c.Header("Server", "")

		c.Next()
	}
}

var devOrigins = []string{
	"http://localhost:3000",
	"http://localhost:3001",
	"http://localhost:8080",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:3001",
	"http://127.0.0.1:8080",
}

// CORSMiddleware handles Cross-Origin Resource Sharing with environment-based configuration
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	allowed := make(map[string]bool)
	if cfg.IsDevelopment() {
		for _, o := range devOrigins {
			allowed[o] = true
		}
	}
	for _, o := range cfg.GetAllowedOrigins() {
		allowed[o] = true
	}

	return func(c *gin.Context) {
		// Echo the origin back only when it is allowed
		origin := c.Request.Header.Get("Origin")
		if origin != "" && allowed[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400") // 24 hours

		// Answer preflight requests without reaching the handlers
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

var allowedContentTypes = []string{
	"application/json",
	"multipart/form-data",
	"application/x-www-form-urlencoded",
	"text/csv",
}

var suspiciousAgents = []string{
	"sqlmap",
	"nikto",
	"nmap",
	"masscan",
	"<script",
	"javascript:",
}

// InputValidationMiddleware caps the body size, requires a known content type
// on writes and blocks scanner user agents.
func InputValidationMiddleware(maxRequestSize int64) gin.HandlerFunc {
	if maxRequestSize <= 0 {
		maxRequestSize = 10 * 1024 * 1024
	}

	return func(c *gin.Context) {
		// Cap the body; reads past the limit fail in the handler
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestSize)

		// Writes must declare a supported content type
		if c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut {
			contentType := c.GetHeader("Content-Type")
			if contentType == "" {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"error": "Content-Type header is required",
				})
				return
			}

			isValidType := false
			for _, allowedType := range allowedContentTypes {
				if strings.HasPrefix(contentType, allowedType) {
					isValidType = true
					break
				}
			}
			if !isValidType {
				c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
					"error":         "Unsupported content type",
					"allowed_types": allowedContentTypes,
				})
				return
			}
		}

		// Require a User-Agent header
		userAgent := c.GetHeader("User-Agent")
		if userAgent == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "User-Agent header is required",
			})
			return
		}

		// Block known scanners and script injection in the user agent
		userAgentLower := strings.ToLower(userAgent)
		for _, pattern := range suspiciousAgents {
			if strings.Contains(userAgentLower, pattern) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "Request blocked for security reasons",
				})
				return
			}
		}

		c.Next()
	}
}

// rateLimiter counts requests per client IP over a sliding window
type rateLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	now       func() time.Time
	clients   map[string][]time.Time
	lastSweep time.Time
}

func newRateLimiter(limit int, window time.Duration, now func() time.Time) *rateLimiter {
	return &rateLimiter{
		limit:     limit,
		window:    window,
		now:       now,
		clients:   make(map[string][]time.Time),
		lastSweep: now(),
	}
}

// allow records a request from ip and reports whether it is within the limit
func (l *rateLimiter) allow(ip string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Forget clients that went quiet, at most once per window
	if now.Sub(l.lastSweep) > l.window {
		for client, timestamps := range l.clients {
			if len(timestamps) == 0 || now.Sub(timestamps[len(timestamps)-1]) > l.window {
				delete(l.clients, client)
			}
		}
		l.lastSweep = now
	}

	// Drop this client's timestamps that left the window
	valid := l.clients[ip][:0]
	for _, ts := range l.clients[ip] {
		if now.Sub(ts) <= l.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= l.limit {
		l.clients[ip] = valid
		return false
	}
	l.clients[ip] = append(valid, now)
	return true
}

// tracked returns how many clients currently hold state
func (l *rateLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// RateLimitingMiddleware allows perMinute requests per client IP over a
// sliding one-minute window. State is in-memory and per process.
func RateLimitingMiddleware(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		perMinute = 100
	}
	return rateLimitHandler(newRateLimiter(perMinute, time.Minute, time.Now))
}

func rateLimitHandler(limiter *rateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": "60",
			})
			return
		}

		c.Next()
	}
}
