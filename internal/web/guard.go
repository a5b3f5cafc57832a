package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"leaderboard/internal/auth"
	"leaderboard/internal/view"
)

const (
	msgForbidden  = "Faculty access required."
	msgBadRequest = "Invalid request."
	msgInternal   = "Something went wrong."
)

// surface selects how guard failures and errors are written.
type surface int

const (
	htmlSurface surface = iota
	jsonSurface
)

// guard runs the route guard. It writes the redirect, 401 or 403 itself and
// returns ok=false when the handler must stop.
func (s *server) guard(c *gin.Context, out surface, facultyOnly bool) (ctx context.Context, user *auth.User, release func(), ok bool) {
	ctx, user, release, err := view.Guard(c.Request.Context(), auth.GateFrom(c))
	if err != nil {
		s.unauthenticated(c, out)
		return nil, nil, nil, false
	}
	if facultyOnly && !user.IsFaculty() {
		release()
		s.fail(c, out, auth.ErrForbidden)
		return nil, nil, nil, false
	}
	return ctx, user, release, true
}

func (s *server) unauthenticated(c *gin.Context, out surface) {
	if out == htmlSurface {
		c.Redirect(http.StatusSeeOther, "/login")
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
}

// fail writes err in the surface's format.
func (s *server) fail(c *gin.Context, out surface, err error) {
	status, msg := http.StatusInternalServerError, msgInternal
	var ve *view.Error
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		s.unauthenticated(c, out)
		return
	case errors.Is(err, auth.ErrForbidden):
		status, msg = http.StatusForbidden, msgForbidden
	case errors.As(err, &ve):
		status, msg = ve.Kind.Status(), ve.Message
	default:
		s.log.Error("request failed", zap.Error(err))
	}
	if out == htmlSurface {
		c.HTML(status, "message.tmpl", gin.H{"Title": http.StatusText(status), "Message": msg, "Error": true})
		return
	}
	body := gin.H{"error": msg}
	if ve != nil {
		body["kind"] = ve.Kind.String()
	}
	c.JSON(status, body)
}

// currentUser reads the gate's present state without holding a subscription.
func currentUser(c *gin.Context) *auth.User {
	first := make(chan *auth.User, 1)
	unsubscribe := auth.GateFrom(c).Subscribe(func(v *auth.User) {
		select {
		case first <- v:
		default:
		}
	})
	unsubscribe()
	return <-first
}
