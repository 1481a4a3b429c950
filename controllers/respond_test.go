package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel-backend/models"
	"hostel-backend/services"
)

func testContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestRespondError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"validation", &services.ValidationError{Field: "capacity", Message: "must be at least 1"}, http.StatusBadRequest, "capacity: must be at least 1"},
		{"not found", services.ErrRoomNotFound, http.StatusNotFound, "room not found"},
		{"wrapped not found", fmt.Errorf("load: %w", services.ErrBookingNotFound), http.StatusNotFound, "load: booking not found"},
		{"conflict", services.ErrRoomFull, http.StatusConflict, "room is at full capacity"},
		{"unauthorized", services.ErrInvalidCredentials, http.StatusUnauthorized, "invalid email or password"},
		{"forbidden", services.ErrNotAllowed, http.StatusForbidden, "you are not allowed to perform this action"},
		{"rotation", services.ErrPasswordChangeRequired, http.StatusForbidden, "password_change_required"},
		{"unknown", errors.New("pq: relation does not exist"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, w := testContext("/")
			respondError(c, tc.err)

			assert.Equal(t, tc.code, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.msg, body["error"])
		})
	}
}

func TestParamID(t *testing.T) {
	c, _ := testContext("/")
	c.Params = gin.Params{{Key: "id", Value: "17"}}
	id, ok := paramID(c, "id")
	assert.True(t, ok)
	assert.EqualValues(t, 17, id)

	for _, raw := range []string{"0", "-1", "abc", ""} {
		c, w := testContext("/")
		c.Params = gin.Params{{Key: "id", Value: raw}}
		_, ok := paramID(c, "id")
		assert.False(t, ok, raw)
		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
	}
}

func TestQueryHelpers(t *testing.T) {
	c, _ := testContext("/?hostelId=3&from=2026-10-01&page=2&pageSize=25")
	id, ok := queryUint(c, "hostelId")
	require.True(t, ok)
	require.NotNil(t, id)
	assert.EqualValues(t, 3, *id)

	missing, ok := queryUint(c, "roomId")
	assert.True(t, ok)
	assert.Nil(t, missing)

	from, ok := queryDate(c, "from")
	require.True(t, ok)
	assert.Equal(t, 2026, from.Year())
	assert.Equal(t, time.October, from.Month())

	assert.Equal(t, services.Page{Page: 2, PageSize: 25}, page(c))

	bad, w := testContext("/?hostelId=x")
	_, ok = queryUint(bad, "hostelId")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2026-02-28")
	require.NoError(t, err)
	assert.Equal(t, 28, d.Day())

	d, err = parseDate("2026-02-28T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 10, d.Hour())

	_, err = parseDate("28/02/2026")
	assert.Error(t, err)
}

func TestScopedHostel(t *testing.T) {
	requested := uint(9)
	own := uint(4)

	c, _ := testContext("/")
	c.Set("principal", &services.Principal{Actor: services.Actor{ID: 1, Role: models.RoleAdmin}})
	assert.Equal(t, &requested, scopedHostel(c, &requested))

	c, _ = testContext("/")
	c.Set("principal", &services.Principal{Actor: services.Actor{ID: 2, Role: models.RoleWarden, HostelID: &own}})
	assert.Equal(t, &own, scopedHostel(c, &requested))

	c, _ = testContext("/")
	c.Set("principal", &services.Principal{Actor: services.Actor{ID: 3, Role: models.RoleStaff}})
	got := scopedHostel(c, nil)
	require.NotNil(t, got)
	assert.EqualValues(t, 0, *got)
}
