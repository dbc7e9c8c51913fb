package stepup

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/idgate/internal/gateway/domain"

	"github.com/stretchr/testify/require"
)

func TestPipeline_EmptyRequiresChallenge(t *testing.T) {
	p := NewPipeline()

	d := p.Evaluate(context.Background(), Request{})
	require.False(t, d.Exempt)
	require.Empty(t, d.MatchedFilter)
}

func TestPipeline_FirstMatchShortCircuits(t *testing.T) {
	third := 0
	p := NewPipeline(
		FilterFunc{ID: "first", Fn: func(Request) bool { return false }},
		FilterFunc{ID: "second", Fn: func(Request) bool { return true }},
		FilterFunc{ID: "third", Fn: func(Request) bool { third++; return true }},
	)

	d := p.Evaluate(context.Background(), Request{})
	require.True(t, d.Exempt)
	require.Equal(t, "second", d.MatchedFilter)
	require.Zero(t, third, "filters after the first match must not run")
}

func TestPipeline_AllFalseRequiresChallenge(t *testing.T) {
	p := NewPipeline(
		FilterFunc{ID: "first", Fn: func(Request) bool { return false }},
		FilterFunc{ID: "second", Fn: func(Request) bool { return false }},
	)

	d := p.Evaluate(context.Background(), Request{})
	require.False(t, d.Exempt)
	require.Empty(t, d.MatchedFilter)
}

func TestClientAbsentFilter(t *testing.T) {
	f := ClientAbsentFilter{}
	require.True(t, f.Exempt(Request{}))
	require.False(t, f.Exempt(Request{Client: &domain.Client{ClientID: "client-a"}}))
}

func TestTrustedDeviceFilter(t *testing.T) {
	f := TrustedDeviceFilter{}
	require.True(t, f.Exempt(Request{DeviceTrusted: true}))
	require.False(t, f.Exempt(Request{}))
}

func TestRiskScoreFilter(t *testing.T) {
	f := RiskScoreFilter{Threshold: 0.3}
	require.True(t, f.Exempt(Request{RiskScore: 0.2}))
	require.True(t, f.Exempt(Request{RiskScore: 0.3}))
	require.False(t, f.Exempt(Request{RiskScore: 0.4}))

	// A zero threshold disables the exemption entirely.
	require.False(t, RiskScoreFilter{}.Exempt(Request{RiskScore: 0}))
}

func TestUserWithoutMFAFilter(t *testing.T) {
	f := UserWithoutMFAFilter{}
	require.False(t, f.Exempt(Request{}))
	require.True(t, f.Exempt(Request{User: &domain.User{Username: "alice"}}))

	// An enrolled but never-activated secret is not a live factor.
	require.True(t, f.Exempt(Request{User: &domain.User{Username: "alice", MFASecret: "s3cret"}}))

	activated := time.Now()
	require.False(t, f.Exempt(Request{User: &domain.User{
		Username:     "alice",
		MFASecret:    "s3cret",
		MFAEnabledAt: &activated,
	}}))
}

func TestPipeline_OrderMatters(t *testing.T) {
	// client-absent sits first so requests with no client short-circuit
	// before any user-level filter runs.
	p := NewPipeline(ClientAbsentFilter{}, UserWithoutMFAFilter{})

	activated := time.Now()
	d := p.Evaluate(context.Background(), Request{
		User: &domain.User{Username: "alice", MFASecret: "s3cret", MFAEnabledAt: &activated},
	})
	require.True(t, d.Exempt)
	require.Equal(t, "client-absent", d.MatchedFilter)
}
