package api

import (
	"fintrack/database"
	"fintrack/middleware"
	"fintrack/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AccountHandler 账户处理器
type AccountHandler struct {
	ledger *service.AccountLedger
}

// NewAccountHandler 创建账户处理器
func NewAccountHandler() *AccountHandler {
	return &AccountHandler{ledger: service.NewAccountLedger(database.DB)}
}

// CreateAccountRequest 创建账户请求
type CreateAccountRequest struct {
	Name      string          `json:"name" binding:"required,max=100" example:"Cash"`
	Type      string          `json:"type" binding:"required,oneof=checking savings cash investment credit" example:"cash"`
	Balance   decimal.Decimal `json:"balance" swaggertype:"number" example:"500"`
	Color     string          `json:"color" binding:"max=30" example:"bg-blue-500"`
	IsDefault *bool           `json:"is_default"`
}

// UpdateAccountRequest 更新账户请求，未出现的字段不修改
type UpdateAccountRequest struct {
	Name      *string          `json:"name" binding:"omitempty,max=100"`
	Type      *string          `json:"type" binding:"omitempty,oneof=checking savings cash investment credit"`
	Balance   *decimal.Decimal `json:"balance" swaggertype:"number"`
	Color     *string          `json:"color" binding:"omitempty,max=30"`
	IsDefault *bool            `json:"is_default"`
}

// TransferRequest 转账请求
type TransferRequest struct {
	From   uint            `json:"from" binding:"required" example:"1"`
	To     uint            `json:"to" binding:"required" example:"2"`
	Amount decimal.Decimal `json:"amount" swaggertype:"number" example:"200"`
}

// List 获取账户列表
// @Summary 获取账户列表
// @Tags 账户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Account}
// @Router /api/accounts [get]
func (h *AccountHandler) List(c *gin.Context) {
	accounts, err := h.ledger.List(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		respondError(c, err, "Failed to load accounts")
		return
	}
	Success(c, accounts)
}

// Get 获取单个账户
// @Summary 获取账户详情
// @Tags 账户
// @Produce json
// @Security BearerAuth
// @Param id path int true "账户ID"
// @Success 200 {object} Response{data=models.Account}
// @Failure 404 {object} Response
// @Router /api/accounts/{id} [get]
func (h *AccountHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	acc, err := h.ledger.Get(c.Request.Context(), middleware.GetCurrentUserID(c), id)
	if err != nil {
		respondError(c, err, "Failed to load account")
		return
	}
	Success(c, acc)
}

// Create 创建账户
// @Summary 创建账户
// @Description 用户的第一个账户自动成为默认账户；is_default=true 时取消其他账户的默认标记
// @Tags 账户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateAccountRequest true "账户信息"
// @Success 201 {object} Response{data=models.Account}
// @Failure 400 {object} Response
// @Router /api/accounts [post]
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := bindStrictJSON(c, &req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	acc, err := h.ledger.Create(c.Request.Context(), middleware.GetCurrentUserID(c), service.AccountInput{
		Name:      req.Name,
		Type:      req.Type,
		Balance:   req.Balance,
		Color:     req.Color,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		respondError(c, err, "Failed to create account")
		return
	}
	Created(c, acc)
}

// Update 更新账户
// @Summary 更新账户
// @Tags 账户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "账户ID"
// @Param request body UpdateAccountRequest true "更新字段"
// @Success 200 {object} Response{data=models.Account}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /api/accounts/{id} [put]
func (h *AccountHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateAccountRequest
	if err := bindStrictJSON(c, &req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	acc, err := h.ledger.Update(c.Request.Context(), middleware.GetCurrentUserID(c), id, service.AccountPatch{
		Name:      req.Name,
		Type:      req.Type,
		Balance:   req.Balance,
		Color:     req.Color,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		respondError(c, err, "Failed to update account")
		return
	}
	Success(c, acc)
}

// Delete 删除账户
// @Summary 删除账户
// @Description 不影响引用该账户名称的交易记录
// @Tags 账户
// @Produce json
// @Security BearerAuth
// @Param id path int true "账户ID"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Router /api/accounts/{id} [delete]
func (h *AccountHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.ledger.Delete(c.Request.Context(), middleware.GetCurrentUserID(c), id); err != nil {
		respondError(c, err, "Failed to delete account")
		return
	}
	SuccessWithMessage(c, "Account removed", nil)
}

// Transfer 账户间转账
// @Summary 账户间转账
// @Description 两个账户余额与转账流水在同一事务内提交
// @Tags 账户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransferRequest true "转账信息"
// @Success 200 {object} Response{data=service.TransferResult}
// @Failure 400 {object} Response "参数错误或余额不足"
// @Failure 404 {object} Response
// @Router /api/accounts/transfer [post]
func (h *AccountHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := bindStrictJSON(c, &req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	res, err := h.ledger.Transfer(c.Request.Context(), middleware.GetCurrentUserID(c), req.From, req.To, req.Amount)
	if err != nil {
		respondError(c, err, "Transfer failed")
		return
	}
	SuccessWithMessage(c, "Transfer successful", res)
}
