package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"leaderboard/internal/account"
	"leaderboard/internal/auth"
)

const msgBadCredentials = "Invalid email or password."

type credentials struct {
	Email    string `form:"email" json:"email" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

func (s *server) loginForm(c *gin.Context) {
	if currentUser(c) != nil {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.HTML(http.StatusOK, "login.tmpl", gin.H{"Title": "Sign in", "Email": ""})
}

func (s *server) login(c *gin.Context) {
	var in credentials
	if err := c.ShouldBind(&in); err != nil {
		c.HTML(http.StatusBadRequest, "login.tmpl", gin.H{"Title": "Sign in", "Email": "", "Error": msgBadCredentials})
		return
	}
	tok, err := s.signIn(c, in)
	if err != nil {
		status := http.StatusUnauthorized
		if !errors.Is(err, account.ErrBadCredentials) {
			status = http.StatusInternalServerError
		}
		c.HTML(status, "login.tmpl", gin.H{"Title": "Sign in", "Email": in.Email, "Error": msgBadCredentials})
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookie, tok.Value, int(s.cfg.AccessTTL.Seconds()), "/", "", s.cfg.Production(), true)
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *server) apiLogin(c *gin.Context) {
	var in credentials
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tok, err := s.signIn(c, in)
	if err != nil {
		if errors.Is(err, account.ErrBadCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": msgBadCredentials})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": tok.Value, "expires_at": tok.ExpiresAt.Unix()})
}

func (s *server) signIn(c *gin.Context, in credentials) (auth.Token, error) {
	acct, err := account.Authenticate(c.Request.Context(), s.accounts, in.Email, in.Password)
	if err != nil {
		if !errors.Is(err, account.ErrBadCredentials) {
			s.log.Error("account lookup failed", zap.Error(err))
		}
		return auth.Token{}, err
	}
	tok, err := auth.Issue(acct, s.cfg.JWTIssuer, s.cfg.JWTSigningKey, s.cfg.AccessTTL)
	if err != nil {
		s.log.Error("token issue failed", zap.Error(err))
		return auth.Token{}, err
	}
	s.log.Info("signed in", zap.String("email", acct.Email), zap.String("role", acct.Role))
	return tok, nil
}

func (s *server) logout(c *gin.Context) {
	if user := currentUser(c); user != nil && s.revoked != nil {
		if err := s.revoked.Revoke(c.Request.Context(), user.TokenID, user.ExpiresAt); err != nil {
			s.log.Warn("token revocation failed", zap.Error(err))
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookie, "", -1, "/", "", s.cfg.Production(), true)
	c.Redirect(http.StatusSeeOther, "/login")
}
