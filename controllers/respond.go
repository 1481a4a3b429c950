package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hostel-backend/middleware"
	"hostel-backend/services"
	"hostel-backend/utils"
)

// respondError maps service errors onto status codes. Anything unrecognised is
// logged and answered with a generic 500 so driver messages never leak.
func respondError(c *gin.Context, err error) {
	var (
		verr *services.ValidationError
		derr *services.DomainError
	)
	switch {
	case errors.As(err, &verr):
		utils.JSONError(c, http.StatusBadRequest, verr.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrConflict):
		utils.JSONError(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		utils.JSONError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrForbidden):
		msg := err.Error()
		if errors.As(err, &derr) && derr == services.ErrPasswordChangeRequired {
			msg = derr.Code
		}
		utils.JSONError(c, http.StatusForbidden, msg)
	default:
		middleware.LoggerFrom(c).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal server error")
	}
}

func badRequest(c *gin.Context, msg string) {
	utils.JSONError(c, http.StatusBadRequest, msg)
}

// paramID reads a positive numeric path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(n), true
}

// queryUint returns nil when the query parameter is absent.
func queryUint(c *gin.Context, name string) (*uint, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return nil, false
	}
	v := uint(n)
	return &v, true
}

// queryDate accepts YYYY-MM-DD or RFC 3339.
func queryDate(c *gin.Context, name string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	t, err := parseDate(raw)
	if err != nil {
		badRequest(c, "invalid "+name+", expected YYYY-MM-DD")
		return nil, false
	}
	return &t, true
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", raw, time.Local); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func page(c *gin.Context) services.Page {
	p, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("pageSize"))
	return services.Page{Page: p, PageSize: size}
}

func listResponse(c *gin.Context, items interface{}, total int64, p services.Page) {
	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"items":    items,
		"total":    total,
		"page":     p.Page,
		"pageSize": p.PageSize,
	})
}

// principal is set by middleware.Authenticate on every protected route.
func principal(c *gin.Context) *services.Principal {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return &services.Principal{}
	}
	return p
}

func actor(c *gin.Context) services.Actor {
	return principal(c).Actor
}

// scopedHostel narrows a requested hostel filter to the caller's hostel for non-admins.
func scopedHostel(c *gin.Context, requested *uint) *uint {
	a := actor(c)
	if a.IsAdmin() {
		return requested
	}
	if a.HostelID != nil {
		return a.HostelID
	}
	zero := uint(0)
	return &zero
}
