package response

import (
	"CraveQuest/internal/api/dto"
	"CraveQuest/internal/pkg/cache"
	"CraveQuest/internal/service"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"sentinel", service.ErrParamInvalid, BadRequest},
		{"wrapped", fmt.Errorf("ranking week:value: %w", service.ErrParamInvalid), BadRequest},
		{"not found", service.ErrRecipeNotFound, NotFound},
		{"timeout", cache.ErrRecomputeTimeout, ServiceUnavailable},
		{"store down", fmt.Errorf("%w: %w", cache.ErrBackingStoreUnavailable, errors.New("dial tcp")), ServiceUnavailable},
		{"unknown", errors.New("boom"), InternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			Error(c, tc.err)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tc.code, decode(t, w).Code)
		})
	}
}

func TestError_HidesUnexpectedMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Error(c, errors.New("password=secret"))

	assert.Equal(t, service.UnExpectedError.Error(), decode(t, w).Message)
}

func TestSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Success(c, map[string]int{"n": 1})

	resp := decode(t, w)
	assert.Equal(t, Ok, resp.Code)
	assert.Equal(t, "success", resp.Message)
	assert.Equal(t, map[string]interface{}{"n": float64(1)}, resp.Data)
}
