package stepup

// ClientAbsentFilter exempts requests that carry no resolved client. With no
// client there is no MFA policy to enforce, so the challenge is skipped
// rather than failed.
type ClientAbsentFilter struct{}

func (ClientAbsentFilter) Name() string { return "client-absent" }

func (ClientAbsentFilter) Exempt(req Request) bool {
	return req.Client == nil
}

// TrustedDeviceFilter exempts requests arriving from a device the user has
// previously completed a challenge on.
type TrustedDeviceFilter struct{}

func (TrustedDeviceFilter) Name() string { return "trusted-device" }

func (TrustedDeviceFilter) Exempt(req Request) bool {
	return req.DeviceTrusted
}

// RiskScoreFilter exempts requests whose assessed risk is at or below the
// configured threshold. A zero threshold never exempts.
type RiskScoreFilter struct {
	Threshold float64
}

func (RiskScoreFilter) Name() string { return "risk-score" }

func (f RiskScoreFilter) Exempt(req Request) bool {
	return f.Threshold > 0 && req.RiskScore <= f.Threshold
}

// UserWithoutMFAFilter exempts users with no activated MFA factor; there is
// nothing to challenge them with. An enrolled-but-not-activated secret does
// not count: the factor only becomes live once activation proves the user
// holds it.
type UserWithoutMFAFilter struct{}

func (UserWithoutMFAFilter) Name() string { return "user-without-mfa" }

func (UserWithoutMFAFilter) Exempt(req Request) bool {
	return req.User != nil && req.User.MFAEnabledAt == nil
}

// FilterFunc adapts a plain predicate into a Filter.
type FilterFunc struct {
	ID string
	Fn func(req Request) bool
}

func (f FilterFunc) Name() string { return f.ID }

func (f FilterFunc) Exempt(req Request) bool { return f.Fn(req) }
