package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/luckydraw-admin-api/internal/models"
	appErrors "github.com/noah-isme/luckydraw-admin-api/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestJSONEnvelope(t *testing.T) {
	c, w := newContext()

	JSON(c, http.StatusOK, []string{"a"}, &models.Pagination{Page: 2, PageSize: 10, TotalCount: 11, MaxPage: 2}, map[string]interface{}{"tab": "winners"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []interface{}{"a"}, body["data"])
	assert.Equal(t, "winners", body["meta"].(map[string]interface{})["tab"])
	assert.EqualValues(t, 2, body["pagination"].(map[string]interface{})["max_page"])
}

func TestErrorEnvelope(t *testing.T) {
	c, w := newContext()

	Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "confirmation required"))

	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.True(t, c.IsAborted())
	assert.Contains(t, w.Body.String(), "PRECONDITION_FAILED")
	assert.Contains(t, w.Body.String(), "confirmation required")
}

func TestErrorHidesUntypedErrors(t *testing.T) {
	c, w := newContext()

	Error(c, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}
