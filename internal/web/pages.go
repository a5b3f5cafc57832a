package web

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"leaderboard/internal/auth"
	"leaderboard/internal/student"
	"leaderboard/internal/view"
)

const defaultLeaderboardLimit = 50

func (s *server) home(c *gin.Context) {
	user := currentUser(c)
	target := "/login"
	switch {
	case user != nil && user.StudentID != "":
		target = "/placement/" + url.PathEscape(user.StudentID)
	case user != nil:
		target = "/leaderboard"
	}
	c.HTML(http.StatusOK, "home.tmpl", gin.H{"Title": "Leaderboard", "User": user, "CheckNow": target})
}

func (s *server) profilePage(c *gin.Context) {
	ctx, user, release, ok := s.guard(c, htmlSurface, false)
	if !ok {
		return
	}
	defer release()

	page, err := s.pages.Profile(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, htmlSurface, err)
		return
	}
	c.HTML(http.StatusOK, "profile.tmpl", gin.H{"Title": "Profile", "User": user, "Page": page})
}

func (s *server) placementPage(c *gin.Context) {
	ctx, user, release, ok := s.guard(c, htmlSurface, false)
	if !ok {
		return
	}
	defer release()

	page, err := s.pages.Placement(ctx, c.Param("studentId"))
	if err != nil {
		s.fail(c, htmlSurface, err)
		return
	}
	c.HTML(http.StatusOK, "placement.tmpl", gin.H{"Title": "Placement", "User": user, "Page": page})
}

func (s *server) leaderboardPage(c *gin.Context) {
	ctx, user, release, ok := s.guard(c, htmlSurface, false)
	if !ok {
		return
	}
	defer release()

	filter, limit := leaderboardQuery(c)
	entries, err := s.pages.Leaderboard(ctx, filter, limit)
	if err != nil {
		s.fail(c, htmlSurface, err)
		return
	}
	c.HTML(http.StatusOK, "leaderboard.tmpl", gin.H{
		"Title":   "Leaderboard",
		"User":    user,
		"Filter":  filter,
		"Entries": entries,
	})
}

func leaderboardQuery(c *gin.Context) (student.Filter, int) {
	limit := defaultLeaderboardLimit
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	return student.Filter{
		Batch:      strings.TrimSpace(c.Query("batch")),
		Department: strings.TrimSpace(c.Query("department")),
	}, limit
}

type lookupForm struct {
	StudentID  string `form:"student_id" binding:"required"`
	Department string `form:"department" binding:"required"`
}

func (s *server) updateLookupPage(c *gin.Context) {
	_, user, release, ok := s.guard(c, htmlSurface, true)
	if !ok {
		return
	}
	defer release()
	c.HTML(http.StatusOK, "update.tmpl", gin.H{"Title": "Update student", "User": user})
}

func (s *server) updateFetchPage(c *gin.Context) {
	ctx, user, release, ok := s.guard(c, htmlSurface, true)
	if !ok {
		return
	}
	defer release()

	var in lookupForm
	if err := c.ShouldBind(&in); err != nil {
		c.HTML(http.StatusBadRequest, "update.tmpl", gin.H{"Title": "Update student", "User": user, "Error": msgBadRequest})
		return
	}
	form, err := s.editor.Fetch(ctx, in.StudentID, in.Department)
	if err != nil {
		s.updateError(c, user, nil, err)
		return
	}
	c.HTML(http.StatusOK, "update.tmpl", gin.H{"Title": "Update student", "User": user, "Form": form})
}

func (s *server) updateSavePage(c *gin.Context) {
	ctx, user, release, ok := s.guard(c, htmlSurface, true)
	if !ok {
		return
	}
	defer release()

	var form view.Form
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "update.tmpl", gin.H{"Title": "Update student", "User": user, "Form": form, "Error": msgBadRequest})
		return
	}
	if err := s.editor.Save(ctx, form); err != nil {
		s.updateError(c, user, &form, err)
		return
	}
	c.HTML(http.StatusOK, "update.tmpl", gin.H{"Title": "Update student", "User": user, "Form": form, "Notice": view.MsgUpdated})
}

// updateError keeps the faculty on the form with the message shown inline.
func (s *server) updateError(c *gin.Context, user *auth.User, form *view.Form, err error) {
	ve, ok := view.AsError(err)
	if !ok {
		s.fail(c, htmlSurface, err)
		return
	}
	data := gin.H{"Title": "Update student", "User": user, "Error": ve.Message}
	if form != nil {
		data["Form"] = *form
	}
	c.HTML(ve.Kind.Status(), "update.tmpl", data)
}
