package service

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestMFAService_EnrollActivateVerify(t *testing.T) {
	s := newTestStore(t)
	seedDomain(t, s, "default")
	users := &UserService{Store: s}
	svc := &MFAService{Users: users, Issuer: "idgate"}
	ctx := context.Background()

	u, err := users.Create(ctx, "default", "alice", "hunter2-hunter2", "", "", "")
	require.NoError(t, err)

	enrollment, err := svc.Enroll(ctx, u.ID)
	require.NoError(t, err)
	require.NotEmpty(t, enrollment.Secret)
	require.Contains(t, enrollment.URL, "otpauth://totp/")

	// Not active until the user proves possession.
	require.ErrorIs(t, svc.Verify(ctx, u.ID, "000000"), ErrMFANotEnrolled)

	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.Activate(ctx, u.ID, code))

	// Activation is one-shot.
	require.ErrorIs(t, svc.Activate(ctx, u.ID, code), ErrMFAAlreadyEnabled)

	code, err = totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.Verify(ctx, u.ID, code))
	require.ErrorIs(t, svc.Verify(ctx, u.ID, "000000"), ErrInvalidTOTPCode)
}

func TestMFAService_ActivateRequiresEnrollment(t *testing.T) {
	s := newTestStore(t)
	seedDomain(t, s, "default")
	users := &UserService{Store: s}
	svc := &MFAService{Users: users, Issuer: "idgate"}
	ctx := context.Background()

	u, err := users.Create(ctx, "default", "bob", "hunter2-hunter2", "", "", "")
	require.NoError(t, err)

	require.ErrorIs(t, svc.Activate(ctx, u.ID, "123456"), ErrMFANotEnrolled)

	_, err = svc.Enroll(ctx, u.ID)
	require.NoError(t, err)
	require.ErrorIs(t, svc.Activate(ctx, u.ID, "000000"), ErrInvalidTOTPCode)
}
