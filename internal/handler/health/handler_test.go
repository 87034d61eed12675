package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	h.RegisterRoutes(&e.RouterGroup)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestReady(t *testing.T) {
	up := Check{Name: "database", Ping: func(context.Context) error { return nil }}
	down := Check{Name: "database", Ping: func(context.Context) error { return errors.New("connection refused") }}

	tests := []struct {
		name   string
		checks []Check
		want   int
		state  string
	}{
		{"no checks", nil, http.StatusOK, "UP"},
		{"database up", []Check{up}, http.StatusOK, "UP"},
		{"database down", []Check{down}, http.StatusServiceUnavailable, "DOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(NewHandler(tt.checks...), "/health/ready")
			assert.Equal(t, tt.want, w.Code)

			var body struct {
				Status     string            `json:"status"`
				Components map[string]string `json:"components"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.state, body.Status)
			if len(tt.checks) > 0 {
				assert.Equal(t, tt.state, body.Components["database"])
			}
		})
	}
}

func TestLive(t *testing.T) {
	w := serve(NewHandler(), "/health/live")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"UP"`)
}
