package service

import (
	"context"
	"fmt"

	"fintrack/logger"
	"fintrack/models"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AlertNotifier 预算提醒发送方
type AlertNotifier interface {
	SendBudgetAlertDigest(toEmail, name string, alerts []BudgetAlert) error
}

// AlertDigest 定时汇总预算提醒并发送邮件
type AlertDigest struct {
	db       *gorm.DB
	tracker  *BudgetTracker
	notifier AlertNotifier
	cron     *cron.Cron
	log      *logrus.Entry
}

// NewAlertDigest 创建预算提醒汇总任务
func NewAlertDigest(db *gorm.DB, tracker *BudgetTracker, notifier AlertNotifier) *AlertDigest {
	return &AlertDigest{
		db:       db,
		tracker:  tracker,
		notifier: notifier,
		cron:     cron.New(),
		log:      logger.WithComponent("alert_digest"),
	}
}

// Start 按 cron 表达式注册任务并启动调度
func (d *AlertDigest) Start(spec string) error {
	_, err := d.cron.AddFunc(spec, func() {
		sent, err := d.RunOnce(context.Background())
		if err != nil {
			d.log.WithError(err).Error("alert digest run failed")
			return
		}
		d.log.WithField("sent", sent).Info("alert digest finished")
	})
	if err != nil {
		return fmt.Errorf("schedule alert digest %q: %w", spec, err)
	}
	d.cron.Start()
	d.log.WithField("cron", spec).Info("alert digest scheduled")
	return nil
}

// Stop 停止调度并等待正在执行的任务结束
func (d *AlertDigest) Stop() {
	<-d.cron.Stop().Done()
}

// RunOnce 立即执行一次，返回成功发送的邮件数
// 单个用户失败只记录日志，不影响其他用户
func (d *AlertDigest) RunOnce(ctx context.Context) (int, error) {
	var userIDs []uint
	err := d.db.WithContext(ctx).Model(&models.Budget{}).
		Where("is_active = ? AND alert_enabled = ?", true, true).
		Distinct().
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return 0, fmt.Errorf("list alert users: %w", err)
	}
	if len(userIDs) == 0 {
		return 0, nil
	}

	var users []models.User
	if err := d.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return 0, fmt.Errorf("load alert users: %w", err)
	}

	sent := 0
	for _, u := range users {
		alerts, err := d.tracker.CheckAlerts(ctx, u.ID)
		if err != nil {
			d.log.WithError(err).WithField("user_id", u.ID).Warn("check alerts failed")
			continue
		}
		if len(alerts) == 0 {
			continue
		}
		if err := d.notifier.SendBudgetAlertDigest(u.Email, u.Name, alerts); err != nil {
			d.log.WithError(err).WithField("user_id", u.ID).Warn("send alert digest failed")
			continue
		}
		sent++
	}
	return sent, nil
}
