// Package httpx holds the JSON envelope every handler answers with.
package httpx

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"venue-backend/internal/apperr"
	"venue-backend/internal/domain/users"
	"venue-backend/internal/logging"
)

const (
	ExposeDetailsKey = "expose_error_details"
	TraceIDKey       = "trace_id"
	UserIDKey        = "user_id"
	RoleKey          = "role"
	EmailKey         = "email"
)

func OK(c *gin.Context, status int, message string, data any) {
	body := gin.H{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// Fail maps err to its status and kind. Details and the wrapped cause only
// leave the process when the details switch is on.
func Fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	body := gin.H{
		"success": false,
		"error":   apperr.KindOf(err),
	}

	e, ok := apperr.As(err)
	if ok {
		body["message"] = e.Msg
		if e.Code != "" {
			body["code"] = e.Code
		}
	} else {
		body["message"] = http.StatusText(status)
	}
	if c.GetBool(ExposeDetailsKey) {
		body["details"] = err.Error()
	}
	if id := c.GetString(TraceIDKey); id != "" {
		body["trace_id"] = id
	}

	entry := logging.FromGin(c).WithError(err).WithField("status", status)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}
	c.AbortWithStatusJSON(status, body)
}

// BadRequest answers a malformed body or parameter.
func BadRequest(c *gin.Context, err error) {
	Fail(c, apperr.Validation("%s", err.Error()))
}

func Unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   "unauthorized",
		"message": message,
	})
}

// ParamID reads a positive numeric path parameter.
func ParamID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		Fail(c, apperr.Validation("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

// QueryID reads a positive numeric query parameter.
func QueryID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil || id == 0 {
		Fail(c, apperr.Validation("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

// Actor returns the caller set by the auth middleware. Guests get a zero actor.
func Actor(c *gin.Context) users.Actor {
	return users.Actor{UserID: c.GetUint(UserIDKey), Role: c.GetString(RoleKey)}
}

// UserID returns the authenticated user id, or nil for guests.
func UserID(c *gin.Context) *uint {
	id := c.GetUint(UserIDKey)
	if id == 0 {
		return nil
	}
	return &id
}
