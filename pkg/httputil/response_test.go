package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jwalitptl/vetclinic/pkg/errors"
)

func respond(err error) (*httptest.ResponseRecorder, Response) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("request_id", "req-1")
	RespondWithError(c, err)

	var resp Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "wrapped transition error keeps its kind",
			err:     fmt.Errorf("failed to cancel appointment: %w", apperrors.InvalidTransition("completed", "cancel")),
			status:  http.StatusConflict,
			message: "failed to cancel appointment: cannot cancel from state completed",
		},
		{
			name:    "not found",
			err:     apperrors.NotFound("pet", nil),
			status:  http.StatusNotFound,
			message: "pet not found",
		},
		{
			name:    "unknown errors are hidden",
			err:     fmt.Errorf("dial tcp: connection refused"),
			status:  http.StatusInternalServerError,
			message: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := respond(tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.message, resp.Error.Message)
			assert.Equal(t, "req-1", resp.Error.TraceID)
		})
	}
}
