package transport

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures CORS behavior for the HTTP transport.
type CORSConfig struct {
	// AllowOrigins lists the allowed origins; a single "*" allows any.
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	// MaxAge is how long preflight results may be cached, in seconds.
	MaxAge int
}

// DefaultCORSConfig returns a permissive configuration for development.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		MaxAge:       86400,
	}
}

func (c CORSConfig) withDefaults() CORSConfig {
	d := DefaultCORSConfig()
	if len(c.AllowMethods) == 0 {
		c.AllowMethods = d.AllowMethods
	}
	if len(c.AllowHeaders) == 0 {
		c.AllowHeaders = d.AllowHeaders
	}
	if c.MaxAge == 0 {
		c.MaxAge = d.MaxAge
	}
	return c
}

// allowedOrigin returns the value for Access-Control-Allow-Origin, or ""
// when origin is not allowed.
func (c CORSConfig) allowedOrigin(origin string) string {
	for _, o := range c.AllowOrigins {
		if o == "*" && len(c.AllowOrigins) == 1 {
			return "*"
		}
		if origin != "" && o == origin {
			return origin
		}
	}
	return ""
}

// CORSHandler wraps next with CORS headers and answers preflight requests.
func CORSHandler(config CORSConfig, next http.Handler) http.Handler {
	config = config.withDefaults()
	methods := strings.Join(config.AllowMethods, ", ")
	headers := strings.Join(config.AllowHeaders, ", ")
	expose := strings.Join(config.ExposeHeaders, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allow := config.allowedOrigin(r.Header.Get("Origin"))
		if allow == "" {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("Access-Control-Allow-Origin", allow)
		if allow != "*" {
			h.Add("Vary", "Origin")
		}
		if config.AllowCredentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			if config.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if expose != "" {
			h.Set("Access-Control-Expose-Headers", expose)
		}
		next.ServeHTTP(w, r)
	})
}

// WithCORS configures CORS for the HTTP transport.
func WithCORS(config CORSConfig) HTTPOption {
	return func(h *HTTP) {
		h.corsConfig = &config
	}
}

// WithDefaultCORS enables CORS with DefaultCORSConfig.
func WithDefaultCORS() HTTPOption {
	return WithCORS(DefaultCORSConfig())
}
