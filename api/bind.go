package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// ignoredKeys 客户端回传整条记录时携带的字段，静默丢弃
var ignoredKeys = []string{"id", "_id", "user", "user_id"}

// bindStrictJSON 解析请求体：丢弃 ignoredKeys 与 extraIgnored，其余未知字段返回错误，然后执行 binding 校验
func bindStrictJSON(c *gin.Context, dst interface{}, extraIgnored ...string) error {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return errors.New("Invalid JSON body")
	}
	for _, k := range ignoredKeys {
		delete(fields, k)
	}
	for _, k := range extraIgnored {
		delete(fields, k)
	}

	cleaned, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(cleaned))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if name, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
			return fmt.Errorf("Unknown field: %s", strings.Trim(name, `"`))
		}
		return fmt.Errorf("Invalid request: %s", err.Error())
	}

	if binding.Validator == nil {
		return nil
	}
	if err := binding.Validator.ValidateStruct(dst); err != nil {
		return fmt.Errorf("Invalid request: %s", err.Error())
	}
	return nil
}

// parseDate 支持 2006-01-02 与 RFC3339，endOfDay 为 true 时纯日期取当天最后一刻
func parseDate(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("Invalid date: %s", s)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, nil
}

// optionalDate 解析可选的日期参数，空字符串返回 nil
func optionalDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseDate(s, endOfDay)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseID 解析路径中的 id
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, "Invalid id")
		return 0, false
	}
	return uint(id), true
}
