package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	apperrors "github.com/lk2023060901/property-research-backend/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h gin.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	h(c)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestSuccess(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) { Success(c, map[string]int{"total": 2}) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, apperrors.Success, body.Code)
	assert.Equal(t, map[string]any{"total": float64(2)}, body.Data)

	_, body = serve(t, func(c *gin.Context) { Success(c, nil) })
	assert.Equal(t, map[string]any{}, body.Data)
}

func TestCreated(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) { Created(c, gin.H{"id": "p1"}) })
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, http.StatusCreated, body.Code)
}

func TestErrorWithCode(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) { ErrorWithCode(c, apperrors.ErrSearchUnknownProvider, "bing") })
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrSearchUnknownProvider, body.Code)
	assert.Equal(t, "Unknown search provider: bing", body.Message)
	assert.Equal(t, map[string]any{}, body.Data)

	_, body = serve(t, func(c *gin.Context) { ErrorWithCode(c, apperrors.ErrSearchPatternNotFound) })
	assert.Equal(t, "Saved pattern not found", body.Message)
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    int
		wantMessage string
		wantData    any
	}{
		{
			name:        "wrapped cause",
			err:         apperrors.Wrap(errors.New("timeout"), apperrors.ErrSearchProviderFailed),
			wantStatus:  http.StatusBadGateway,
			wantCode:    apperrors.ErrSearchProviderFailed,
			wantMessage: "Search provider request failed: timeout",
			wantData:    map[string]any{},
		},
		{
			name:        "with data",
			err:         apperrors.New(apperrors.ErrSearchInvalidPattern).WithData([]string{"customer_name"}),
			wantStatus:  http.StatusBadRequest,
			wantCode:    apperrors.ErrSearchInvalidPattern,
			wantMessage: "Invalid search pattern",
			wantData:    []any{"customer_name"},
		},
		{
			name:        "plain error",
			err:         errors.New("plain"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    apperrors.ErrInternalServer,
			wantMessage: "Internal server error: plain",
			wantData:    map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := serve(t, func(c *gin.Context) { HandleError(c, tt.err) })
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantMessage, body.Message)
			assert.Equal(t, tt.wantData, body.Data)
		})
	}
}
