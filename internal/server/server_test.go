package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/codechallenge/internal/server"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestInit(t *testing.T) {
	tests := map[string]struct {
		arrange func(t *testing.T) server.Config
	}{
		"without redis": {
			arrange: func(t *testing.T) server.Config {
				return server.DefaultConfig()
			},
		},
		"with redis notifications": {
			arrange: func(t *testing.T) server.Config {
				c := server.DefaultConfig()
				c.Redis.Notify.Enabled = true
				c.Redis.Notify.Addrs = []string{miniredis.RunT(t).Addr()}
				return c
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s, err := server.Init(tt.arrange(t))
			require.NoError(t, err)
			t.Cleanup(s.Shutdown)

			for _, path := range []string{"/healthz", "/metrics", "/api/v1/challenges", "/debug/pprof/"} {
				req := httptest.NewRequestWithContext(context.Background(), http.MethodGet, path, nil)
				w := httptest.NewRecorder()
				s.Handler().ServeHTTP(w, req)
				assert.Equal(t, http.StatusOK, w.Code, path)
			}
		})
	}
}

func TestInit_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	c := server.DefaultConfig()
	c.Redis.Notify.Enabled = true
	c.Redis.Notify.Addrs = []string{addr}

	_, err := server.Init(c)
	assert.Error(t, err)
}
