package api

import (
	"strconv"
	"time"

	"fintrack/database"
	"fintrack/middleware"
	"fintrack/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TransactionHandler 收支记录处理器
type TransactionHandler struct {
	recorder *service.TransactionRecorder
}

// NewTransactionHandler 创建收支记录处理器
func NewTransactionHandler() *TransactionHandler {
	return &TransactionHandler{recorder: service.NewTransactionRecorder(database.DB)}
}

// TransactionRequest 创建交易请求
type TransactionRequest struct {
	Type        string          `json:"type" example:"expense"`
	Category    string          `json:"category" example:"Food"`
	Subcategory string          `json:"subcategory" example:"Groceries"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"number" example:"42.5"`
	PaymentMode string          `json:"payment_mode" example:"Card"`
	Payee       string          `json:"payee" example:"Market"`
	Account     string          `json:"account" example:"Bank"`
	Date        string          `json:"date" example:"2024-01-15"`
	Time        string          `json:"time" example:"12:30"`
	Remarks     string          `json:"remarks"`
	Attachment  string          `json:"attachment"`
}

// UpdateTransactionRequest 更新交易请求，未出现的字段不修改
type UpdateTransactionRequest struct {
	Type        *string          `json:"type"`
	Category    *string          `json:"category"`
	Subcategory *string          `json:"subcategory"`
	Amount      *decimal.Decimal `json:"amount" swaggertype:"number"`
	PaymentMode *string          `json:"payment_mode"`
	Payee       *string          `json:"payee"`
	Account     *string          `json:"account"`
	Date        *string          `json:"date"`
	Time        *string          `json:"time"`
	Remarks     *string          `json:"remarks"`
	Attachment  *string          `json:"attachment"`
}

// List 获取交易列表
// @Summary 获取交易列表
// @Description 按日期倒序，limit 默认 50、最大 500
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param type query string false "income 或 expense"
// @Param category query string false "分类"
// @Param start_date query string false "开始日期 (2006-01-02 或 RFC3339)"
// @Param end_date query string false "结束日期 (含当天)"
// @Param limit query int false "条数"
// @Success 200 {object} Response{data=[]models.Transaction}
// @Router /api/transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	start, err := optionalDate(c.Query("start_date"), false)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	end, err := optionalDate(c.Query("end_date"), true)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	limit := 0
	if s := c.Query("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil {
			BadRequest(c, "Invalid limit")
			return
		}
	}

	txs, err := h.recorder.List(c.Request.Context(), middleware.GetCurrentUserID(c), service.TransactionFilter{
		Type:      c.Query("type"),
		Category:  c.Query("category"),
		StartDate: start,
		EndDate:   end,
		Limit:     limit,
	})
	if err != nil {
		respondError(c, err, "Failed to load transactions")
		return
	}
	Success(c, txs)
}

// Get 获取单条交易
// @Summary 获取交易详情
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param id path int true "交易ID"
// @Success 200 {object} Response{data=models.Transaction}
// @Failure 404 {object} Response
// @Router /api/transactions/{id} [get]
func (h *TransactionHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	t, err := h.recorder.Get(c.Request.Context(), middleware.GetCurrentUserID(c), id)
	if err != nil {
		respondError(c, err, "Failed to load transaction")
		return
	}
	Success(c, t)
}

// Create 创建交易
// @Summary 创建交易
// @Tags 交易
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransactionRequest true "交易信息"
// @Success 201 {object} Response{data=models.Transaction}
// @Failure 400 {object} Response
// @Router /api/transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	var req TransactionRequest
	if err := bindStrictJSON(c, &req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	date, err := optionalDate(req.Date, false)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	t, err := h.recorder.Create(c.Request.Context(), middleware.GetCurrentUserID(c), service.TransactionInput{
		Type:        req.Type,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Amount:      req.Amount,
		PaymentMode: req.PaymentMode,
		Payee:       req.Payee,
		Account:     req.Account,
		Date:        date,
		Time:        req.Time,
		Remarks:     req.Remarks,
		Attachment:  req.Attachment,
	})
	if err != nil {
		respondError(c, err, "Failed to create transaction")
		return
	}
	Created(c, t)
}

// Update 更新交易
// @Summary 更新交易
// @Tags 交易
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "交易ID"
// @Param request body UpdateTransactionRequest true "更新字段"
// @Success 200 {object} Response{data=models.Transaction}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /api/transactions/{id} [put]
func (h *TransactionHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateTransactionRequest
	if err := bindStrictJSON(c, &req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	var date *time.Time
	if req.Date != nil {
		d, err := parseDate(*req.Date, false)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		date = &d
	}

	t, err := h.recorder.Update(c.Request.Context(), middleware.GetCurrentUserID(c), id, service.TransactionPatch{
		Type:        req.Type,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Amount:      req.Amount,
		PaymentMode: req.PaymentMode,
		Payee:       req.Payee,
		Account:     req.Account,
		Date:        date,
		Time:        req.Time,
		Remarks:     req.Remarks,
		Attachment:  req.Attachment,
	})
	if err != nil {
		respondError(c, err, "Failed to update transaction")
		return
	}
	Success(c, t)
}

// Delete 删除交易
// @Summary 删除交易
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param id path int true "交易ID"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Router /api/transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.recorder.Delete(c.Request.Context(), middleware.GetCurrentUserID(c), id); err != nil {
		respondError(c, err, "Failed to delete transaction")
		return
	}
	SuccessWithMessage(c, "Transaction removed", nil)
}
