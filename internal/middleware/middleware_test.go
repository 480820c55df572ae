package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/tnb/internal/logger"
	"github.com/stwalsh4118/tnb/internal/models"
)

func init() {
	// Set Gin to test mode to reduce noise in tests
	gin.SetMode(gin.TestMode)
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	t.Run("generates new request ID", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID())
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, GetRequestID(c))
		})

		w := serve(router, httptest.NewRequest(http.MethodGet, "/test", nil))

		headerID := w.Header().Get(RequestIDHeader)
		if headerID == "" {
			t.Fatal("Expected X-Request-ID header to be set")
		}
		if w.Body.String() != headerID {
			t.Errorf("Expected body to contain request ID %s, got %s", headerID, w.Body.String())
		}
	})

	t.Run("reuses upstream request ID", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID())
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, GetRequestID(c))
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "gateway-req-123")
		w := serve(router, req)

		if w.Body.String() != "gateway-req-123" {
			t.Errorf("Expected upstream request ID, got %s", w.Body.String())
		}
	})

	t.Run("replaces malformed upstream request ID", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID())
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, GetRequestID(c))
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLength+1))
		w := serve(router, req)

		if len(w.Body.String()) != 36 {
			t.Errorf("Expected a generated UUID, got %q", w.Body.String())
		}
	})

	t.Run("GetRequestID returns empty string if not set", func(t *testing.T) {
		if id := GetRequestID(&gin.Context{}); id != "" {
			t.Errorf("Expected empty string, got %s", id)
		}
	})
}

func TestValidRequestID(t *testing.T) {
	tests := map[string]bool{
		"":                        false,
		"abc-123":                 true,
		"has space":               false,
		"tab\there":               false,
		"d3b07384-d9a0-4c3f-9e8b": true,
	}
	for id, want := range tests {
		if got := validRequestID(id); got != want {
			t.Errorf("validRequestID(%q) = %v, want %v", id, got, want)
		}
	}
}

func TestCORS(t *testing.T) {
	allowedOrigins := []string{"http://localhost:4200"}

	newRouter := func() *gin.Engine {
		router := gin.New()
		router.Use(CORS(allowedOrigins))
		router.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "OK") })
		router.OPTIONS("/test", func(c *gin.Context) { c.String(http.StatusOK, "OK") })
		return router
	}

	t.Run("allows request from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Origin", "http://localhost:4200")
		w := serve(newRouter(), req)

		if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:4200" {
			t.Error("Expected Access-Control-Allow-Origin header to be set")
		}
		if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
			t.Error("Expected Access-Control-Allow-Credentials header to be set")
		}
	})

	t.Run("does not set CORS headers for disallowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Origin", "http://evil.com")
		w := serve(newRouter(), req)

		if w.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Error("Expected no CORS headers for disallowed origin")
		}
	})

	t.Run("preflight allows identity headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/test", nil)
		req.Header.Set("Origin", "http://localhost:4200")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "X-User-ID, X-User-Role")
		w := serve(newRouter(), req)

		if w.Code != http.StatusNoContent {
			t.Errorf("Expected status 204 for preflight, got %d", w.Code)
		}
		allowed := strings.ToLower(w.Header().Get("Access-Control-Allow-Headers"))
		if !strings.Contains(allowed, "x-user-role") {
			t.Errorf("Expected X-User-Role in allowed headers, got %q", allowed)
		}
	})

	t.Run("rejects preflight for disallowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/test", nil)
		req.Header.Set("Origin", "http://evil.com")
		w := serve(newRouter(), req)

		if w.Code != http.StatusForbidden {
			t.Errorf("Expected status 403 for disallowed OPTIONS, got %d", w.Code)
		}
	})
}

func TestLogger(t *testing.T) {
	t.Run("stores request logger in context", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID())
		router.Use(Logger(logger.New("test")))
		router.GET("/test", func(c *gin.Context) {
			if GetLogger(c) == nil {
				t.Error("Expected logger to be in context")
			}
			c.String(http.StatusOK, "OK")
		})

		w := serve(router, httptest.NewRequest(http.MethodGet, "/test?year=2025", nil))
		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
	})

	t.Run("logs client errors", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID())
		router.Use(Logger(logger.New("test")))
		router.GET("/test", func(c *gin.Context) {
			_ = c.Error(http.ErrNoCookie)
			c.Status(http.StatusBadRequest)
		})

		w := serve(router, httptest.NewRequest(http.MethodGet, "/test", nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("GetLogger returns nil if not set", func(t *testing.T) {
		if GetLogger(&gin.Context{}) != nil {
			t.Error("Expected nil logger")
		}
	})
}

func TestRecovery(t *testing.T) {
	t.Run("recovers from panic and returns 500", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID())
		router.Use(Recovery(logger.New("test")))
		router.GET("/panic", func(c *gin.Context) {
			panic("test panic")
		})

		w := serve(router, httptest.NewRequest(http.MethodGet, "/panic", nil))

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected status 500 after panic, got %d", w.Code)
		}
		body := w.Body.String()
		if !strings.Contains(body, "INTERNAL_SERVER_ERROR") {
			t.Error("Expected error response to contain INTERNAL_SERVER_ERROR")
		}
		if !strings.Contains(body, w.Header().Get(RequestIDHeader)) {
			t.Error("Expected error response to contain the request ID")
		}
	})

	t.Run("does not interfere with normal requests", func(t *testing.T) {
		router := gin.New()
		router.Use(Recovery(logger.New("test")))
		router.GET("/normal", func(c *gin.Context) {
			c.String(http.StatusOK, "OK")
		})

		w := serve(router, httptest.NewRequest(http.MethodGet, "/normal", nil))
		if w.Code != http.StatusOK || w.Body.String() != "OK" {
			t.Errorf("Expected 200 OK, got %d %s", w.Code, w.Body.String())
		}
	})
}

func TestIdentity(t *testing.T) {
	newRouter := func(seen *models.Caller) *gin.Engine {
		router := gin.New()
		router.Use(RequestID())
		router.Use(Logger(logger.New("test")))
		router.Use(Identity())
		router.GET("/test", func(c *gin.Context) {
			caller, ok := GetCaller(c)
			if !ok {
				t.Error("Expected caller in context")
			}
			*seen = caller
			c.String(http.StatusOK, "OK")
		})
		return router
	}

	t.Run("stores caller from headers", func(t *testing.T) {
		var seen models.Caller
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(UserIDHeader, "u-17")
		req.Header.Set(UserRoleHeader, " Technician ")
		w := serve(newRouter(&seen), req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		if seen.ID != "u-17" || seen.Role != models.RoleTechnician {
			t.Errorf("Unexpected caller %+v", seen)
		}
	})

	for name, headers := range map[string]map[string]string{
		"missing both": {},
		"missing role": {UserIDHeader: "u-17"},
		"missing user": {UserRoleHeader: "admin"},
	} {
		t.Run(name, func(t *testing.T) {
			var seen models.Caller
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			for key, value := range headers {
				req.Header.Set(key, value)
			}
			w := serve(newRouter(&seen), req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("Expected status 401, got %d", w.Code)
			}
			if !strings.Contains(w.Body.String(), "UNAUTHORIZED") {
				t.Error("Expected UNAUTHORIZED error code")
			}
		})
	}

	t.Run("GetCaller reports absence", func(t *testing.T) {
		if _, ok := GetCaller(&gin.Context{}); ok {
			t.Error("Expected no caller")
		}
	})
}

func TestMiddlewareStack(t *testing.T) {
	log := logger.New("test")

	router := gin.New()
	router.Use(RequestID(), Logger(log), Recovery(log), CORS([]string{"http://localhost:4200"}))
	api := router.Group("/api", Identity())
	api.GET("/test", func(c *gin.Context) {
		if GetRequestID(c) == "" {
			t.Error("Expected request ID from RequestID middleware")
		}
		if GetLogger(c) == nil {
			t.Error("Expected logger from Logger middleware")
		}
		if _, ok := GetCaller(c); !ok {
			t.Error("Expected caller from Identity middleware")
		}
		c.String(http.StatusOK, "OK")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set("Origin", "http://localhost:4200")
	req.Header.Set(UserIDHeader, "admin-1")
	req.Header.Set(UserRoleHeader, "admin")
	w := serve(router, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("Expected X-Request-ID header")
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:4200" {
		t.Error("Expected CORS headers")
	}
}
