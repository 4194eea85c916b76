package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"time"

	"restopos/internal/cache"
	"restopos/internal/model"
)

const (
	otpKeyPrefix                 = "otp:"
	pendingRegistrationKeyPrefix = "pending_registration:"
)

// OTPStoreInterface defines the cache-resident signup state keyed by email.
type OTPStoreInterface interface {
	SaveCode(ctx context.Context, email, code string, ttl time.Duration) error
	MatchCode(ctx context.Context, email, submitted string) (bool, error)
	SavePendingRegistration(ctx context.Context, email string, pending model.PendingRegistration, ttl time.Duration) error
	GetPendingRegistration(ctx context.Context, email string) (*model.PendingRegistration, error)
	Clear(ctx context.Context, email string) error
}

// OTPStore keeps verification codes and pending registrations in Redis.
type OTPStore struct {
	cache cache.Store
}

// Ensure OTPStore implements OTPStoreInterface
var _ OTPStoreInterface = (*OTPStore)(nil)

// NewOTPStore creates a new OTP store.
func NewOTPStore(cache cache.Store) *OTPStore {
	return &OTPStore{cache: cache}
}

func otpKey(email string) string {
	return otpKeyPrefix + email
}

func pendingKey(email string) string {
	return pendingRegistrationKeyPrefix + email
}

// SaveCode stores the code for email, replacing any earlier code.
func (s *OTPStore) SaveCode(ctx context.Context, email, code string, ttl time.Duration) error {
	return s.cache.Set(ctx, otpKey(email), []byte(code), ttl)
}

// MatchCode reports whether submitted equals the live code for email.
// A code that was never issued and one that has expired both yield false.
func (s *OTPStore) MatchCode(ctx context.Context, email, submitted string) (bool, error) {
	stored, err := s.cache.Get(ctx, otpKey(email))
	if err != nil {
		return false, fmt.Errorf("read otp: %w", err)
	}
	if stored == nil {
		return false, nil
	}
	return subtle.ConstantTimeCompare(stored, []byte(submitted)) == 1, nil
}

// SavePendingRegistration parks the signup payload for email.
func (s *OTPStore) SavePendingRegistration(ctx context.Context, email string, pending model.PendingRegistration, ttl time.Duration) error {
	payload, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("marshal pending registration: %w", err)
	}
	return s.cache.Set(ctx, pendingKey(email), payload, ttl)
}

// GetPendingRegistration returns nil when nothing is parked for email.
func (s *OTPStore) GetPendingRegistration(ctx context.Context, email string) (*model.PendingRegistration, error) {
	data, err := s.cache.Get(ctx, pendingKey(email))
	if err != nil {
		return nil, fmt.Errorf("read pending registration: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	var pending model.PendingRegistration
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, fmt.Errorf("unmarshal pending registration: %w", err)
	}
	return &pending, nil
}

// Clear removes both the code and the pending registration for email.
func (s *OTPStore) Clear(ctx context.Context, email string) error {
	return s.cache.Delete(ctx, otpKey(email), pendingKey(email))
}
