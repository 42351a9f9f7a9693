package api

import (
	"strings"

	"fintrack/config"
	"fintrack/database"
	"fintrack/logger"
	"fintrack/service"

	"github.com/gin-gonic/gin"
)

// resetRequestedMessage 无论邮箱是否注册都返回同一提示
const resetRequestedMessage = "If that email is registered, a password reset link has been sent"

// PasswordResetHandler 密码重置处理器
type PasswordResetHandler struct {
	cfg          *config.Config
	users        *service.UserService
	emailService *service.EmailService
}

// NewPasswordResetHandler 创建密码重置处理器
func NewPasswordResetHandler(cfg *config.Config) *PasswordResetHandler {
	return &PasswordResetHandler{
		cfg:          cfg,
		users:        service.NewUserService(database.DB),
		emailService: service.NewEmailService(&cfg.Email),
	}
}

// ForgotPasswordRequest 请求重置密码
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email" example:"alice@example.com"`
}

// ResetPasswordRequest 重置密码请求
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6,max=72" example:"newpassword"`
}

// ForgotPassword 请求密码重置邮件
// @Summary 请求密码重置
// @Description 邮件中的链接 10 分钟内有效。为了安全，即使用户不存在也返回成功。
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body ForgotPasswordRequest true "邮箱地址"
// @Success 200 {object} Response "请求成功（无论用户是否存在）"
// @Failure 400 {object} Response "参数错误"
// @Failure 500 {object} Response "邮件发送失败"
// @Router /api/auth/forgot-password [post]
func (h *PasswordResetHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Please provide a valid email")
		return
	}

	ctx := c.Request.Context()
	user, token, err := h.users.IssueResetToken(ctx, req.Email)
	if err != nil {
		respondError(c, err, "Failed to create reset token")
		return
	}
	if user == nil {
		SuccessWithMessage(c, resetRequestedMessage, nil)
		return
	}

	resetLink := strings.TrimRight(h.cfg.Server.FrontendURL, "/") + "/reset-password/" + token
	if err := h.emailService.SendPasswordResetEmail(user.Email, user.Name, resetLink); err != nil {
		// 邮件发送失败，撤销令牌
		if clearErr := h.users.ClearResetToken(ctx, user); clearErr != nil {
			logger.WithComponent("auth").WithError(clearErr).Warn("revoke reset token failed")
		}
		logger.WithComponent("auth").WithError(err).WithField("user_id", user.ID).Error("send reset email failed")
		InternalError(c, SafeErrorMessage(err, "Email could not be sent"))
		return
	}

	SuccessWithMessage(c, resetRequestedMessage, nil)
}

// ResetPassword 使用令牌重置密码
// @Summary 重置密码
// @Tags 认证
// @Accept json
// @Produce json
// @Param token path string true "邮件中的重置令牌"
// @Param request body ResetPasswordRequest true "新密码"
// @Success 200 {object} Response "重置成功"
// @Failure 400 {object} Response "令牌无效或已过期"
// @Router /api/auth/reset-password/{token} [post]
func (h *PasswordResetHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	if _, err := h.users.ResetPassword(c.Request.Context(), c.Param("token"), req.Password); err != nil {
		respondError(c, err, "Failed to reset password")
		return
	}
	SuccessWithMessage(c, "Password reset successful", nil)
}
