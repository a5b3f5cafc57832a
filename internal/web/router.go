// Package web is the HTTP surface: server-rendered pages for browsers and a
// JSON mirror under /api/v1.
package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"leaderboard/internal/account"
	"leaderboard/internal/auth"
	"leaderboard/internal/config"
	"leaderboard/internal/httpmiddleware"
	"leaderboard/internal/rank"
	"leaderboard/internal/student"
	"leaderboard/internal/view"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Deps are the collaborators the router needs.
type Deps struct {
	Students    student.Gateway
	Accounts    account.Store
	Revocations auth.Revocations
	// Checks are reported by /healthz. A failing check turns the response 503.
	Checks map[string]func(context.Context) bool
	Log    *zap.Logger
}

type server struct {
	cfg      config.App
	accounts account.Store
	revoked  auth.Revocations
	pages    *view.Pages
	editor   *view.Editor
	checks   map[string]func(context.Context) bool
	log      *zap.Logger
}

// NewRouter wires every route.
func NewRouter(cfg config.App, d Deps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	s := &server{
		cfg:      cfg,
		accounts: d.Accounts,
		revoked:  d.Revocations,
		pages:    view.NewPages(d.Students, log),
		editor:   view.NewEditor(d.Students, log),
		checks:   d.Checks,
		log:      log,
	}

	r := gin.New()
	r.Use(httpmiddleware.Recovery(log))
	r.Use(httpmiddleware.RequestLog(log, "/healthz", "/metrics"))
	r.Use(httpmiddleware.CORS(cfg.AllowedOrigins))
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).Middleware())
	r.SetHTMLTemplate(template.Must(template.New("").Funcs(template.FuncMap{
		"rank": rank.Label,
	}).ParseFS(templateFS, "templates/*.tmpl")))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", s.health)

	session := auth.Session(cfg.JWTSigningKey, cfg.JWTIssuer, d.Revocations)

	pages := r.Group("/", session)
	pages.GET("/", s.home)
	pages.GET("/login", s.loginForm)
	pages.POST("/login", s.login)
	pages.POST("/logout", s.logout)
	pages.GET("/profile/:id", s.profilePage)
	pages.GET("/placement/:studentId", s.placementPage)
	pages.GET("/leaderboard", s.leaderboardPage)
	pages.GET("/faculty/update", s.updateLookupPage)
	pages.POST("/faculty/update/fetch", s.updateFetchPage)
	pages.POST("/faculty/update", s.updateSavePage)

	api := r.Group("/api/v1", session)
	api.POST("/login", s.apiLogin)
	api.GET("/students/:id/profile", s.apiProfile)
	api.GET("/students/:id/placement", s.apiPlacement)
	api.GET("/leaderboard", s.apiLeaderboard)
	api.PUT("/students/:id", s.apiUpdate)

	return r
}

func (s *server) health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, check := range s.checks {
		ok := check(c.Request.Context())
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}
