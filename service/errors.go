package service

import "errors"

// 业务错误，api 层据此映射 HTTP 状态码
var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrInsufficientBalance = errors.New("Insufficient balance")
	ErrEmailTaken          = errors.New("User already exists")
	ErrInvalidCredentials  = errors.New("Invalid email or password")
)

// ValidationError 输入校验失败，Msg 直接返回给客户端
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Is 使 errors.Is(err, ErrValidation) 成立
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid 构造校验错误
func Invalid(msg string) error {
	return &ValidationError{Msg: msg}
}

// NotFoundError 记录不存在或不属于当前用户，两种情况对外不作区分
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

// Is 使 errors.Is(err, ErrNotFound) 成立
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func notFound(entity string) error {
	return &NotFoundError{Entity: entity}
}
