package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/idgate/pkg/slogx"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var (
	ErrInvalidTOTPCode   = errors.New("invalid_totp_code")
	ErrMFANotEnrolled    = errors.New("mfa_not_enrolled")
	ErrMFAAlreadyEnabled = errors.New("mfa_already_enabled")
)

// MFAService handles TOTP enrollment and verification for the step-up
// challenge.
type MFAService struct {
	Users  *UserService
	Issuer string

	Now func() time.Time
}

func (s *MFAService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Enrollment is returned once at enrollment time; the secret and otpauth
// URL are never retrievable afterwards.
type Enrollment struct {
	Secret  string
	URL     string
	Account string
}

// Enroll generates a TOTP secret for the user. MFA is not active until the
// user proves possession through Activate.
func (s *MFAService) Enroll(ctx context.Context, userID string) (Enrollment, error) {
	u, err := s.Users.Get(ctx, userID)
	if err != nil {
		return Enrollment{}, err
	}
	if u.MFAEnabledAt != nil {
		return Enrollment{}, ErrMFAAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: u.Username,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return Enrollment{}, fmt.Errorf("generate totp key: %w", err)
	}

	u.MFASecret = key.Secret()
	u.UpdatedAt = s.now()
	if err := s.Users.Store.Users().Update(ctx, u); err != nil {
		return Enrollment{}, fmt.Errorf("store mfa secret: %w", err)
	}

	return Enrollment{
		Secret:  key.Secret(),
		URL:     key.URL(),
		Account: u.Username,
	}, nil
}

// Activate verifies a code against the enrolled secret and marks MFA
// enabled on success.
func (s *MFAService) Activate(ctx context.Context, userID, code string) error {
	u, err := s.Users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u.MFASecret == "" {
		return ErrMFANotEnrolled
	}
	if u.MFAEnabledAt != nil {
		return ErrMFAAlreadyEnabled
	}
	if !totp.Validate(code, u.MFASecret) {
		return ErrInvalidTOTPCode
	}

	now := s.now()
	u.MFAEnabledAt = &now
	u.UpdatedAt = now
	if err := s.Users.Store.Users().Update(ctx, u); err != nil {
		return fmt.Errorf("enable mfa: %w", err)
	}

	slogx.FromContext(ctx).Info("mfa enabled",
		slog.String("user_id", userID),
		slog.String("domain", u.Domain),
	)
	return nil
}

// Verify answers a step-up challenge with a TOTP code.
func (s *MFAService) Verify(ctx context.Context, userID, code string) error {
	u, err := s.Users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u.MFASecret == "" || u.MFAEnabledAt == nil {
		return ErrMFANotEnrolled
	}
	if !totp.Validate(code, u.MFASecret) {
		return ErrInvalidTOTPCode
	}
	return nil
}
