package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leaderboard/internal/view"
)

func (s *server) apiProfile(c *gin.Context) {
	ctx, _, release, ok := s.guard(c, jsonSurface, false)
	if !ok {
		return
	}
	defer release()

	page, err := s.pages.Profile(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, jsonSurface, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *server) apiPlacement(c *gin.Context) {
	ctx, _, release, ok := s.guard(c, jsonSurface, false)
	if !ok {
		return
	}
	defer release()

	page, err := s.pages.Placement(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, jsonSurface, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *server) apiLeaderboard(c *gin.Context) {
	ctx, _, release, ok := s.guard(c, jsonSurface, false)
	if !ok {
		return
	}
	defer release()

	filter, limit := leaderboardQuery(c)
	entries, err := s.pages.Leaderboard(ctx, filter, limit)
	if err != nil {
		s.fail(c, jsonSurface, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// updateBody is the PUT payload. The student comes from the path.
type updateBody struct {
	Department      string `json:"department" binding:"required"`
	Name            string `json:"name"`
	Batch           string `json:"batch"`
	Section         string `json:"section"`
	Result          string `json:"result"`
	Achievements    string `json:"achievements"`
	Cocurricular    string `json:"cocurricular"`
	Extracurricular string `json:"extracurricular"`
}

func (s *server) apiUpdate(c *gin.Context) {
	ctx, _, release, ok := s.guard(c, jsonSurface, true)
	if !ok {
		return
	}
	defer release()

	var body updateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgBadRequest})
		return
	}
	form := view.Form{
		StudentID:       c.Param("id"),
		Department:      body.Department,
		Name:            body.Name,
		Batch:           body.Batch,
		Section:         body.Section,
		Result:          body.Result,
		Achievements:    body.Achievements,
		Cocurricular:    body.Cocurricular,
		Extracurricular: body.Extracurricular,
	}
	if err := s.editor.Save(ctx, form); err != nil {
		s.fail(c, jsonSurface, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": view.MsgUpdated})
}
