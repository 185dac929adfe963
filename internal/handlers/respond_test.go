package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"crown_back_end/internal/apperr"
	"crown_back_end/internal/orders"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		apperr.NotFound("order", "ORD1"):                           http.StatusNotFound,
		apperr.Validation("bad"):                                   http.StatusBadRequest,
		fmt.Errorf("%w: expired", apperr.ErrUnauthorized):          http.StatusUnauthorized,
		apperr.ErrForbidden:                                        http.StatusForbidden,
		fmt.Errorf("%w: x", orders.ErrInvalidTransition):           http.StatusConflict,
		apperr.Dependency("fetch", errors.New("connection reset")): http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusFor(err), err.Error())
	}
}

func TestRespondError_HidesInternalDetails(t *testing.T) {
	r := gin.New()
	r.GET("/boom", func(c *gin.Context) {
		respondError(c, zaptest.NewLogger(t), apperr.Dependency("fetch", errors.New("10.0.0.3:9042 timeout")))
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestQueryInt(t *testing.T) {
	var got []int
	var errs []error
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		n, err := queryInt(c, "limit", 8, 1, 20)
		got = append(got, n)
		errs = append(errs, err)
	})
	for _, q := range []string{"", "?limit=5", "?limit=0", "?limit=21", "?limit=abc"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/"+q, nil))
	}
	require.Len(t, got, 5)
	assert.Equal(t, 8, got[0])
	assert.Equal(t, 5, got[1])
	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
	for _, err := range errs[2:] {
		assert.ErrorIs(t, err, apperr.ErrValidation)
	}
}

func TestHealth(t *testing.T) {
	r := gin.New()
	r.GET("/health", Health)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"service":"crown-back-end","status":"healthy"}`, w.Body.String())
}
