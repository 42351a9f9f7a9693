package service

import (
	"fmt"
	"html"
	"strings"

	"fintrack/config"

	"gopkg.in/gomail.v2"
)

// ErrEmailDisabled 邮件服务未启用
var ErrEmailDisabled = fmt.Errorf("email service is disabled, set email.enabled=true")

// EmailService 邮件服务
type EmailService struct {
	cfg  *config.EmailConfig
	send func(m *gomail.Message) error
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	s := &EmailService{cfg: cfg}
	s.send = s.dialAndSend
	return s
}

// Enabled 是否已启用
func (s *EmailService) Enabled() bool {
	return s.cfg != nil && s.cfg.Enabled
}

// SendPasswordResetEmail 发送密码重置邮件
func (s *EmailService) SendPasswordResetEmail(toEmail, name, resetLink string) error {
	if !s.Enabled() {
		return ErrEmailDisabled
	}
	return s.sendEmail(toEmail, "[FinTrack] Password reset", s.generateResetEmailBody(name, resetLink))
}

// SendBudgetAlertDigest 发送预算提醒汇总邮件
func (s *EmailService) SendBudgetAlertDigest(toEmail, name string, alerts []BudgetAlert) error {
	if !s.Enabled() {
		return ErrEmailDisabled
	}
	if len(alerts) == 0 {
		return nil
	}
	subject := fmt.Sprintf("[FinTrack] %d budget alert(s)", len(alerts))
	return s.sendEmail(toEmail, subject, s.generateAlertDigestBody(name, alerts))
}

// generateResetEmailBody 生成重置邮件内容
func (s *EmailService) generateResetEmailBody(name, resetLink string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; }
        .header { background: #2563eb; color: white; padding: 30px; text-align: center; }
        .content { padding: 40px 30px; color: #333; line-height: 1.8; }
        .btn { display: inline-block; background: #2563eb; color: white !important; text-decoration: none; padding: 14px 40px; border-radius: 8px; }
        .warning { background: #fff3cd; border-left: 4px solid #ffc107; padding: 15px; color: #856404; font-size: 14px; }
        .link { word-break: break-all; color: #2563eb; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>FinTrack</h1></div>
        <div class="content">
            <p>Hi <strong>%s</strong>,</p>
            <p>You are receiving this email because a password reset was requested for your account.</p>
            <p style="text-align: center;"><a href="%s" class="btn">Reset password</a></p>
            <div class="warning">
                <p>This link expires in <strong>10 minutes</strong>.</p>
                <p>If you did not request a reset, you can ignore this email.</p>
            </div>
            <p>If the button does not work, copy this link into your browser:</p>
            <p class="link">%s</p>
        </div>
    </div>
</body>
</html>
`, html.EscapeString(name), resetLink, resetLink)
}

// generateAlertDigestBody 生成预算提醒邮件内容
func (s *EmailService) generateAlertDigestBody(name string, alerts []BudgetAlert) string {
	var rows strings.Builder
	for _, a := range alerts {
		fmt.Fprintf(&rows, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%.1f%%</td></tr>\n",
			html.EscapeString(a.Category), a.BudgetAmount.StringFixed(2), a.Spent.StringFixed(2),
			a.Remaining.StringFixed(2), a.Percentage)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif;">
    <p>Hi <strong>%s</strong>,</p>
    <p>The following budgets have reached their alert threshold:</p>
    <table border="1" cellpadding="6" cellspacing="0">
        <tr><th>Category</th><th>Budget</th><th>Spent</th><th>Remaining</th><th>Used</th></tr>
%s    </table>
</body>
</html>
`, html.EscapeString(name), rows.String())
}

// sendEmail 发送邮件
func (s *EmailService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.send(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (s *EmailService) dialAndSend(m *gomail.Message) error {
	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	return d.DialAndSend(m)
}
