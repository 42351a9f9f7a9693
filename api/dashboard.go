package api

import (
	"fintrack/database"
	"fintrack/middleware"
	"fintrack/service"

	"github.com/gin-gonic/gin"
)

// DashboardHandler 仪表盘处理器
type DashboardHandler struct {
	aggregator *service.DashboardAggregator
}

// NewDashboardHandler 创建仪表盘处理器，monthBucket 见 dashboard.month_bucket 配置
func NewDashboardHandler(monthBucket string) *DashboardHandler {
	return &DashboardHandler{aggregator: service.NewDashboardAggregator(database.DB, monthBucket)}
}

// Stats 仪表盘统计
// @Summary 仪表盘统计
// @Description 未指定日期时统计当月；最近交易与账户余额不受日期范围影响
// @Tags 仪表盘
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "开始日期 (2006-01-02 或 RFC3339)"
// @Param end_date query string false "结束日期 (含当天)"
// @Success 200 {object} Response{data=service.DashboardStats}
// @Router /api/dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
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

	stats, err := h.aggregator.Stats(c.Request.Context(), middleware.GetCurrentUserID(c), start, end)
	if err != nil {
		respondError(c, err, "Failed to load dashboard")
		return
	}
	Success(c, stats)
}
