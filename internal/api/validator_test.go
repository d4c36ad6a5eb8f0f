package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yakoovad/capstone-tracker/internal/model"
	"github.com/yakoovad/capstone-tracker/internal/service"
)

func TestValidator_BulkReviewRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		isValid bool
	}{
		{name: "valid", body: `{"action":"APPROVE","items":[{"assignment_id":"as1","project_id":"pr1"}]}`, isValid: true},
		{name: "null item", body: `{"action":"APPROVE","items":[null]}`},
		{name: "null among items", body: `{"action":"REJECT","items":[{"assignment_id":"as1","project_id":"pr1"},null]}`},
		{name: "no items", body: `{"action":"APPROVE","items":[]}`},
		{name: "item without project", body: `{"action":"APPROVE","items":[{"assignment_id":"as1"}]}`},
		{name: "unknown action", body: `{"action":"MAYBE","items":[{"assignment_id":"as1","project_id":"pr1"}]}`},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &model.BulkReviewRequest{}
			require.NoError(t, json.Unmarshal([]byte(tt.body), req))

			err := v.Validate(req)
			if tt.isValid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestHandler_BulkReview_NullItem(t *testing.T) {
	e, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/reviews/bulk", strings.NewReader(`{"action":"APPROVE","items":[null]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, bearer(t, "p1", model.RoleProfessor))
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var got errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, service.ErrorCodeInvalidBody, got.Error.Code)
}
