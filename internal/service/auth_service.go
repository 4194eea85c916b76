package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"restopos/internal/auth"
	apperrors "restopos/internal/errors"
	"restopos/internal/logging"
	"restopos/internal/mail"
	"restopos/internal/model"
	"restopos/internal/obs"
	"restopos/internal/repository"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthConfig holds the tunables of the signup and login flows.
type AuthConfig struct {
	OTPExpiry  time.Duration
	SaltRounds int
}

// SendOTPInput starts a signup. Name and Password are optional; when both
// are present they are parked until the code is verified.
type SendOTPInput struct {
	Email    string
	Name     string
	Password string
}

// SendOTPResult acknowledges a dispatched code.
type SendOTPResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AuthResult is returned by registration and login.
type AuthResult struct {
	User  model.PublicUser `json:"user"`
	Token string           `json:"token"`
}

// AuthService handles OTP signup and password login.
type AuthService interface {
	SendOTP(ctx context.Context, in SendOTPInput) (*SendOTPResult, error)
	VerifyOTPAndRegister(ctx context.Context, email, otp string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
}

type authService struct {
	users   repository.UserRepository
	otps    auth.OTPStoreInterface
	tokens  *auth.JWTService
	mailer  mail.Sender
	cfg     AuthConfig
	log     logging.Logger
	metrics *obs.AuthMetrics
	now     func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users repository.UserRepository,
	otps auth.OTPStoreInterface,
	tokens *auth.JWTService,
	mailer mail.Sender,
	cfg AuthConfig,
	log logging.Logger,
	metrics *obs.AuthMetrics,
) AuthService {
	return &authService{
		users:   users,
		otps:    otps,
		tokens:  tokens,
		mailer:  mailer,
		cfg:     cfg,
		log:     log.With("component", "auth"),
		metrics: metrics,
		now:     time.Now,
	}
}

// SendOTP issues a fresh code for email, replacing any earlier one, and mails it.
// If mailing fails the stored code and pending registration are left to expire.
func (s *authService) SendOTP(ctx context.Context, in SendOTPInput) (*SendOTPResult, error) {
	if !emailPattern.MatchString(in.Email) {
		return nil, apperrors.ErrInvalidEmail
	}

	_, err := s.users.FindActiveByEmail(ctx, in.Email)
	if err == nil {
		return nil, apperrors.ErrUserAlreadyExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	code, err := auth.GenerateOTP()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}

	// Pending data must be readable before the code can reach the user.
	if in.Name != "" && in.Password != "" {
		hash, err := auth.HashPassword(in.Password, s.cfg.SaltRounds)
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperrors.ErrPasswordTooLong
		}
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		pending := model.PendingRegistration{Name: in.Name, PasswordHash: hash}
		if err := s.otps.SavePendingRegistration(ctx, in.Email, pending, s.cfg.OTPExpiry); err != nil {
			return nil, fmt.Errorf("store pending registration: %w", err)
		}
	}

	if err := s.otps.SaveCode(ctx, in.Email, code, s.cfg.OTPExpiry); err != nil {
		return nil, fmt.Errorf("store otp: %w", err)
	}

	if err := s.mailer.SendOTP(ctx, in.Email, code, s.cfg.OTPExpiry); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMailDelivery, err)
	}

	s.metrics.OTPIssued()
	s.log.Info(ctx, "otp sent", "email", in.Email)

	return &SendOTPResult{Success: true, Message: "OTP sent successfully"}, nil
}

// VerifyOTPAndRegister creates the user parked under email once otp matches.
func (s *authService) VerifyOTPAndRegister(ctx context.Context, email, otp string) (*AuthResult, error) {
	ok, err := s.otps.MatchCode(ctx, email, otp)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrInvalidOrExpiredOTP
	}

	pending, err := s.otps.GetPendingRegistration(ctx, email)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return nil, apperrors.ErrRegistrationSessionExpired
	}

	user := &model.User{
		ID:       uuid.New(),
		Email:    email,
		Name:     pending.Name,
		Password: pending.PasswordHash,
		Role:     model.RoleCustomer,
		Status:   model.UserStatusActive,
	}
	// A concurrent registration for the same email loses on the unique key
	// and surfaces here as a plain store error.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.GenerateToken(user.ID.String())
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	if err := s.otps.Clear(ctx, email); err != nil {
		s.log.Warn(ctx, "failed to clear otp state", "email", email, "error", err)
	}

	s.metrics.Registered()
	s.log.Info(ctx, "user registered", "email", email, "user_id", user.ID.String())

	return &AuthResult{User: user.Public(), Token: token}, nil
}

// Login checks email and password. Unknown emails and wrong passwords fail
// with the same error.
func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, apperrors.ErrMissingCredentials
	}

	user, err := s.users.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.Login(obs.LoginFailure)
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := auth.VerifyPassword(user.Password, password); err != nil {
		s.metrics.Login(obs.LoginFailure)
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID.String())
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.log.Warn(ctx, "failed to record last login", "user_id", user.ID.String(), "error", err)
	} else {
		user.LastLoginAt = &now
	}

	s.metrics.Login(obs.LoginSuccess)
	s.log.Info(ctx, "user logged in", "email", email, "user_id", user.ID.String())

	return &AuthResult{User: user.Public(), Token: token}, nil
}
