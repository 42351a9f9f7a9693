package api

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"net/url"
	"strings"

	"fintrack/config"
	"fintrack/database"
	"fintrack/logger"
	"fintrack/middleware"
	"fintrack/service"

	"github.com/gin-gonic/gin"
)

const oauthStateCookie = "oauth_state"

// GoogleAuthHandler Google 登录处理器
type GoogleAuthHandler struct {
	cfg    *config.Config
	google *service.GoogleOAuth
	users  *service.UserService
}

// NewGoogleAuthHandler 创建 Google 登录处理器，未配置时 google 为 nil，接口返回 500
func NewGoogleAuthHandler(cfg *config.Config) *GoogleAuthHandler {
	g, err := service.NewGoogleOAuth(&cfg.Google)
	if err != nil {
		logger.WithComponent("auth").Info("google oauth disabled")
	}
	return &GoogleAuthHandler{cfg: cfg, google: g, users: service.NewUserService(database.DB)}
}

// Redirect 跳转到 Google 授权页
// @Summary Google 登录
// @Tags 认证
// @Success 307 "跳转到 Google 授权页"
// @Failure 500 {object} Response "未配置 Google OAuth"
// @Router /api/auth/google [get]
func (h *GoogleAuthHandler) Redirect(c *gin.Context) {
	if h.google == nil {
		InternalError(c, service.ErrGoogleDisabled.Error())
		return
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		InternalError(c, "Failed to start Google login")
		return
	}
	state := hex.EncodeToString(buf)

	secure, sameSite := getCookieOptions()
	c.SetSameSite(sameSite)
	c.SetCookie(oauthStateCookie, state, 600, "/", "", secure, true)
	c.Redirect(http.StatusTemporaryRedirect, h.google.AuthURL(state))
}

// Callback Google 授权回调，登录成功后带 token 跳转回前端
// @Summary Google 登录回调
// @Tags 认证
// @Param code query string true "授权码"
// @Param state query string true "state"
// @Success 307 "跳转到前端登录页"
// @Router /api/auth/google/callback [get]
func (h *GoogleAuthHandler) Callback(c *gin.Context) {
	if h.google == nil {
		InternalError(c, service.ErrGoogleDisabled.Error())
		return
	}

	frontend := strings.TrimRight(h.cfg.Server.FrontendURL, "/")
	fail := func(reason string) {
		c.Redirect(http.StatusTemporaryRedirect, frontend+"/login?error="+url.QueryEscape(reason))
	}

	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		fail("invalid_state")
		return
	}
	secure, _ := getCookieOptions()
	c.SetCookie(oauthStateCookie, "", -1, "/", "", secure, true)

	code := c.Query("code")
	if code == "" {
		fail("missing_code")
		return
	}

	log := logger.WithComponent("auth")
	info, err := h.google.FetchUser(c.Request.Context(), code)
	if err != nil {
		log.WithError(err).Warn("google exchange failed")
		fail("google_auth_failed")
		return
	}

	user, err := h.users.UpsertGoogleUser(c.Request.Context(), info)
	if err != nil {
		log.WithError(err).Error("google user upsert failed")
		fail("google_auth_failed")
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Email, middleware.TokenTTL())
	if err != nil {
		fail("token_failed")
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, frontend+"/login?token="+url.QueryEscape(token))
}
