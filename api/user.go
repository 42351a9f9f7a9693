package api

import (
	"fintrack/database"
	"fintrack/middleware"
	"fintrack/service"

	"github.com/gin-gonic/gin"
)

// UserHandler 个人资料处理器
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler 创建个人资料处理器
func NewUserHandler() *UserHandler {
	return &UserHandler{users: service.NewUserService(database.DB)}
}

// UpdateProfileRequest 更新资料请求，未出现的字段不修改
type UpdateProfileRequest struct {
	Name           *string `json:"name" binding:"omitempty,max=100"`
	Email          *string `json:"email" binding:"omitempty,email"`
	Phone          *string `json:"phone" binding:"omitempty,max=30"`
	Address        *string `json:"address" binding:"omitempty,max=255"`
	ProfilePicture *string `json:"profile_picture" binding:"omitempty,max=255"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6,max=72"`
}

// Profile 获取当前用户资料
// @Summary 获取个人资料
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=models.User}
// @Router /api/user/profile [get]
func (h *UserHandler) Profile(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		respondError(c, err, "Failed to load profile")
		return
	}
	Success(c, user)
}

// UpdateProfile 更新当前用户资料
// @Summary 更新个人资料
// @Tags 用户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "资料"
// @Success 200 {object} Response{data=models.User}
// @Failure 400 {object} Response
// @Router /api/user/profile [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := bindStrictJSON(c, &req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), middleware.GetCurrentUserID(c), service.ProfilePatch{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Address:        req.Address,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		respondError(c, err, "Failed to update profile")
		return
	}
	Success(c, user)
}

// ChangePassword 修改密码
// @Summary 修改密码
// @Tags 用户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "密码"
// @Success 200 {object} Response
// @Failure 400 {object} Response "当前密码错误"
// @Router /api/user/password [put]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.users.ChangePassword(c.Request.Context(), middleware.GetCurrentUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err, "Failed to change password")
		return
	}
	SuccessWithMessage(c, "Password updated", nil)
}
