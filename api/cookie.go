package api

import (
	"net/http"

	"fintrack/config"
)

// getCookieOptions 根据运行模式返回 Cookie 的安全选项
// release 模式下启用 Secure（仅 HTTPS 传输）
func getCookieOptions() (secure bool, sameSite http.SameSite) {
	cfg := config.GlobalConfig
	if cfg != nil && cfg.Server.Mode == "release" {
		secure = true
	}
	// OAuth 回调是跨站跳转回来的顶层 GET，Lax 仍会携带 Cookie
	sameSite = http.SameSiteLaxMode
	return
}
