package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"ccm-system/internal/dto"
	"ccm-system/internal/repositories"
	"ccm-system/pkg/config"
	apperrors "ccm-system/pkg/errors"
	"ccm-system/pkg/service"
	"ccm-system/pkg/utils"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (token string, username string, err error)
	Register(ctx context.Context, payload dto.RegisterDTO) error
	VerifyUsername(ctx context.Context, username string) error
	ResetPassword(ctx context.Context, payload dto.ResetPasswordDTO) error
}

type AuthService struct {
	userRepo  repositories.UserRepositoryInterface
	cacheRepo repositories.CacheRepositoryInterface
	jwtSvc    service.JWTService
	cfg       config.AuthConfig
	logger    *zap.Logger
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	jwtSvc service.JWTService,
	cfg config.AuthConfig,
	logger *zap.Logger,
) AuthServiceInterface {
	return &AuthService{
		userRepo:  userRepo,
		cacheRepo: cacheRepo,
		jwtSvc:    jwtSvc,
		cfg:       cfg,
		logger:    logger,
	}
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (string, string, error) {
	lockoutKey := fmt.Sprintf("login_lockout:%s", payload.Username)
	if locked, _ := s.cacheRepo.Get(ctx, lockoutKey); locked != "" {
		return "", "", apperrors.ErrTooManyAttempts
	}

	user, err := s.userRepo.FindByUsername(ctx, payload.Username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.recordFailedAttempt(ctx, payload.Username)
			return "", "", apperrors.ErrInvalidCredentials
		}
		return "", "", err
	}

	if err := utils.ComparePasswords(user.PasswordHash, payload.Password); err != nil {
		s.recordFailedAttempt(ctx, payload.Username)
		s.logger.Warn("login failed: wrong password", zap.String("username", payload.Username))
		return "", "", apperrors.ErrInvalidCredentials
	}

	attemptsKey := fmt.Sprintf("login_attempts:%s", payload.Username)
	_ = s.cacheRepo.Del(ctx, attemptsKey, lockoutKey)

	token, err := s.jwtSvc.GenerateToken(user.ID, user.Username)
	if err != nil {
		return "", "", err
	}

	s.logger.Info("login ok", zap.String("username", user.Username))
	return token, user.Username, nil
}

func (s *AuthService) recordFailedAttempt(ctx context.Context, username string) {
	attemptsKey := fmt.Sprintf("login_attempts:%s", username)
	attempts, err := s.cacheRepo.Incr(ctx, attemptsKey)
	if err != nil {
		return
	}
	_, _ = s.cacheRepo.Expire(ctx, attemptsKey, s.cfg.LockoutDuration)

	if attempts >= int64(s.cfg.MaxLoginAttempts) {
		lockoutKey := fmt.Sprintf("login_lockout:%s", username)
		_ = s.cacheRepo.Set(ctx, lockoutKey, "locked", s.cfg.LockoutDuration)
		_ = s.cacheRepo.Del(ctx, attemptsKey)
		s.logger.Warn("account locked after repeated failures",
			zap.String("username", username),
			zap.String("attempts", strconv.FormatInt(attempts, 10)))
	}
}

func (s *AuthService) Register(ctx context.Context, payload dto.RegisterDTO) error {
	hash, err := utils.HashPassword(payload.Password)
	if err != nil {
		return err
	}

	if _, err := s.userRepo.Create(ctx, payload.Username, hash); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return apperrors.NewHttpError(http.StatusConflict, "username is already taken", err)
		}
		return err
	}

	s.logger.Info("user registered", zap.String("username", payload.Username))
	return nil
}

func (s *AuthService) VerifyUsername(ctx context.Context, username string) error {
	if _, err := s.userRepo.FindByUsername(ctx, username); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewHttpError(http.StatusNotFound, "username not found", err)
		}
		return err
	}
	return nil
}

// ResetPassword is the unauthenticated second step of the forgotten-password
// flow; the first step is VerifyUsername.
func (s *AuthService) ResetPassword(ctx context.Context, payload dto.ResetPasswordDTO) error {
	hash, err := utils.HashPassword(payload.NewPassword)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, payload.Username, hash); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewHttpError(http.StatusNotFound, "username not found", err)
		}
		return err
	}

	s.logger.Info("password reset", zap.String("username", payload.Username))
	return nil
}
