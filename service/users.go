package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"fintrack/logger"
	"fintrack/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// MinPasswordLength 密码最小长度
const MinPasswordLength = 6

// ProfilePatch 个人资料可修改字段
type ProfilePatch struct {
	Name           *string
	Email          *string
	Phone          *string
	Address        *string
	ProfilePicture *string
}

// UserService 用户注册、登录、密码与资料管理
type UserService struct {
	db  *gorm.DB
	now func() time.Time
	log *logrus.Entry
}

// NewUserService 创建用户服务
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db, now: time.Now, log: logger.WithComponent("users")}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", Invalid(fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Signup 注册，邮箱已存在返回 ErrEmailTaken
func (s *UserService) Signup(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return nil, Invalid("Name is required")
	}
	if email == "" {
		return nil, Invalid("Email is required")
	}

	taken, err := s.emailTaken(ctx, email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{Name: name, Email: email, Password: hashed}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.WithField("user_id", user.ID).Info("user signed up")
	return &user, nil
}

// Authenticate 校验邮箱与密码
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.findBy(ctx, "email = ?", normalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Get 获取用户
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	return s.findBy(ctx, "id = ?", id)
}

// IssueResetToken 为邮箱对应用户生成重置令牌，用户不存在时返回 nil 用户且不报错
func (s *UserService) IssueResetToken(ctx context.Context, email string) (*models.User, string, error) {
	user, err := s.findBy(ctx, "email = ?", normalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	plain, hashed, err := models.GenerateResetToken()
	if err != nil {
		return nil, "", fmt.Errorf("generate reset token: %w", err)
	}
	expire := s.now().Add(models.ResetTokenTTL)
	user.ResetPasswordToken = hashed
	user.ResetPasswordExpire = &expire

	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, "", fmt.Errorf("save reset token: %w", err)
	}
	return user, plain, nil
}

// ClearResetToken 邮件发送失败时撤销令牌
func (s *UserService) ClearResetToken(ctx context.Context, user *models.User) error {
	user.ClearResetToken()
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("clear reset token: %w", err)
	}
	return nil
}

// ResetPassword 使用邮件中的令牌重置密码，令牌仅能使用一次
func (s *UserService) ResetPassword(ctx context.Context, token, password string) (*models.User, error) {
	user, err := s.findBy(ctx, "reset_password_token = ? AND reset_password_expire > ?", models.HashResetToken(token), s.now())
	if errors.Is(err, ErrNotFound) {
		return nil, Invalid("Invalid or expired token")
	}
	if err != nil {
		return nil, err
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	user.Password = hashed
	user.ClearResetToken()

	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, fmt.Errorf("reset password: %w", err)
	}
	s.log.WithField("user_id", user.ID).Info("password reset")
	return user, nil
}

// UpdateProfile 更新个人资料，修改邮箱时校验唯一性
func (s *UserService) UpdateProfile(ctx context.Context, id uint, patch ProfilePatch) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		if email == "" {
			return nil, Invalid("Email is required")
		}
		if email != user.Email {
			taken, err := s.emailTaken(ctx, email, id)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, Invalid("Email already in use")
			}
			user.Email = email
		}
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, Invalid("Name is required")
		}
		user.Name = name
	}
	setString(&user.Phone, patch.Phone)
	setString(&user.Address, patch.Address)
	setString(&user.ProfilePicture, patch.ProfilePicture)

	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// ChangePassword 校验当前密码后修改
func (s *UserService) ChangePassword(ctx context.Context, id uint, current, next string) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return Invalid("Current password is incorrect")
	}
	hashed, err := hashPassword(next)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password", hashed).Error; err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// UpsertGoogleUser 按 google_id 查找用户，其次按邮箱关联，都不存在时创建
// 只接受 Google 已验证的邮箱
func (s *UserService) UpsertGoogleUser(ctx context.Context, info *GoogleUserInfo) (*models.User, error) {
	email := normalizeEmail(info.Email)
	if info.ID == "" || email == "" {
		return nil, Invalid("Google account has no email")
	}
	if !info.VerifiedEmail {
		return nil, Invalid("Google email is not verified")
	}

	user, err := s.findBy(ctx, "google_id = ?", info.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user, err = s.findBy(ctx, "email = ?", email)
	switch {
	case err == nil:
		googleID := info.ID
		user.GoogleID = &googleID
		if user.ProfilePicture == "" {
			user.ProfilePicture = info.Picture
		}
		if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
			return nil, fmt.Errorf("link google account: %w", err)
		}
		return user, nil
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	// 第三方登录用户没有可用密码，写入随机值
	random := make([]byte, 24)
	if _, err := rand.Read(random); err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}
	hashed, err := hashPassword(hex.EncodeToString(random))
	if err != nil {
		return nil, err
	}

	googleID := info.ID
	name := strings.TrimSpace(info.Name)
	if name == "" {
		name = email
	}
	user = &models.User{
		Name:           name,
		Email:          email,
		Password:       hashed,
		GoogleID:       &googleID,
		ProfilePicture: info.Picture,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("create google user: %w", err)
	}
	s.log.WithField("user_id", user.ID).Info("user signed up with google")
	return user, nil
}

func (s *UserService) emailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	var count int64
	query := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return count > 0, nil
}

func (s *UserService) findBy(ctx context.Context, cond string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where(cond, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("User")
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}
