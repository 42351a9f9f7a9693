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

// BudgetHandler 预算处理器
type BudgetHandler struct {
	tracker *service.BudgetTracker
}

// NewBudgetHandler 创建预算处理器
func NewBudgetHandler() *BudgetHandler {
	return &BudgetHandler{tracker: service.NewBudgetTracker(database.DB)}
}

// BudgetAlertsRequest 预算提醒设置
type BudgetAlertsRequest struct {
	Enabled   *bool    `json:"enabled"`
	Threshold *float64 `json:"threshold" example:"80"`
}

// BudgetRequest 创建或更新预算请求
// end_date 由 start_date 与 period 计算，请求中的值会被忽略
type BudgetRequest struct {
	Category  *string              `json:"category" example:"Food"`
	Amount    *decimal.Decimal     `json:"amount" swaggertype:"number" example:"200"`
	Period    *string              `json:"period" example:"monthly"`
	StartDate *string              `json:"start_date" example:"2024-01-01"`
	Alerts    *BudgetAlertsRequest `json:"alerts"`
	IsActive  *bool                `json:"is_active"`
}

func (r *BudgetRequest) startDate() (*time.Time, error) {
	if r.StartDate == nil {
		return nil, nil
	}
	t, err := parseDate(*r.StartDate, false)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *BudgetRequest) alerts() (*bool, *float64) {
	if r.Alerts == nil {
		return nil, nil
	}
	return r.Alerts.Enabled, r.Alerts.Threshold
}

// List 获取预算列表及进度
// @Summary 获取预算列表
// @Description 每个预算附带 spent、remaining、percentage、should_alert
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param is_active query bool false "是否启用"
// @Success 200 {object} Response{data=[]service.BudgetWithProgress}
// @Router /api/budgets [get]
func (h *BudgetHandler) List(c *gin.Context) {
	var isActive *bool
	if s := c.Query("is_active"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			BadRequest(c, "Invalid is_active")
			return
		}
		isActive = &v
	}

	budgets, err := h.tracker.List(c.Request.Context(), middleware.GetCurrentUserID(c), isActive)
	if err != nil {
		respondError(c, err, "Failed to load budgets")
		return
	}
	Success(c, budgets)
}

// Get 获取单个预算及进度
// @Summary 获取预算详情
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Success 200 {object} Response{data=service.BudgetWithProgress}
// @Failure 404 {object} Response
// @Router /api/budgets/{id} [get]
func (h *BudgetHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	b, err := h.tracker.Get(c.Request.Context(), middleware.GetCurrentUserID(c), id)
	if err != nil {
		respondError(c, err, "Failed to load budget")
		return
	}
	Success(c, b)
}

// CheckAlerts 获取已触发的预算提醒
// @Summary 检查预算提醒
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]service.BudgetAlert}
// @Router /api/budgets/alerts/check [get]
func (h *BudgetHandler) CheckAlerts(c *gin.Context) {
	alerts, err := h.tracker.CheckAlerts(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		respondError(c, err, "Failed to check budget alerts")
		return
	}
	Success(c, alerts)
}

// Create 创建预算
// @Summary 创建预算
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BudgetRequest true "预算信息"
// @Success 201 {object} Response{data=models.Budget}
// @Failure 400 {object} Response
// @Router /api/budgets [post]
func (h *BudgetHandler) Create(c *gin.Context) {
	var req BudgetRequest
	if err := bindStrictJSON(c, &req, "end_date"); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if req.Category == nil || req.Amount == nil {
		BadRequest(c, "Category and amount are required")
		return
	}
	start, err := req.startDate()
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	in := service.BudgetInput{
		Category:  *req.Category,
		Amount:    *req.Amount,
		StartDate: start,
		IsActive:  req.IsActive,
	}
	if req.Period != nil {
		in.Period = *req.Period
	}
	in.AlertsEnabled, in.AlertThreshold = req.alerts()

	b, err := h.tracker.Create(c.Request.Context(), middleware.GetCurrentUserID(c), in)
	if err != nil {
		respondError(c, err, "Failed to create budget")
		return
	}
	Created(c, b)
}

// Update 更新预算
// @Summary 更新预算
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Param request body BudgetRequest true "更新字段"
// @Success 200 {object} Response{data=models.Budget}
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /api/budgets/{id} [put]
func (h *BudgetHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req BudgetRequest
	if err := bindStrictJSON(c, &req, "end_date"); err != nil {
		BadRequest(c, err.Error())
		return
	}
	start, err := req.startDate()
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	patch := service.BudgetPatch{
		Category:  req.Category,
		Amount:    req.Amount,
		Period:    req.Period,
		StartDate: start,
		IsActive:  req.IsActive,
	}
	patch.AlertsEnabled, patch.AlertThreshold = req.alerts()

	b, err := h.tracker.Update(c.Request.Context(), middleware.GetCurrentUserID(c), id, patch)
	if err != nil {
		respondError(c, err, "Failed to update budget")
		return
	}
	Success(c, b)
}

// Delete 删除预算
// @Summary 删除预算
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param id path int true "预算ID"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Router /api/budgets/{id} [delete]
func (h *BudgetHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.tracker.Delete(c.Request.Context(), middleware.GetCurrentUserID(c), id); err != nil {
		respondError(c, err, "Failed to delete budget")
		return
	}
	SuccessWithMessage(c, "Budget removed", nil)
}
