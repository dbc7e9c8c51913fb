// Package stepup decides whether an authenticated request must complete an
// additional MFA challenge or is exempt from it.
package stepup

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/idgate/internal/gateway/domain"
	"github.com/aussiebroadwan/idgate/pkg/slogx"
)

// Request carries the facts an exemption filter may inspect. Fields that do
// not apply to a given request are left at their zero value.
type Request struct {
	Client        *domain.Client
	User          *domain.User
	DeviceTrusted bool
	RiskScore     float64
}

// Filter is one exemption predicate. A true result exempts the request from
// the MFA challenge.
type Filter interface {
	// Name identifies the filter in decisions and logs.
	Name() string

	// Exempt reports whether this filter exempts the request.
	Exempt(req Request) bool
}

// Decision is the outcome of a pipeline evaluation.
type Decision struct {
	// Exempt is true when some filter matched; the request may proceed
	// without an MFA challenge.
	Exempt bool

	// MatchedFilter names the filter that granted the exemption, empty
	// when none did.
	MatchedFilter string
}

// Pipeline evaluates its filters in registration order and ORs their
// results. Evaluation stops at the first filter that exempts; later filters
// are never consulted. An empty pipeline always requires the challenge.
type Pipeline struct {
	filters []Filter
}

func NewPipeline(filters ...Filter) *Pipeline {
	return &Pipeline{filters: filters}
}

// Add appends a filter. Order matters: earlier filters hide later ones when
// they match.
func (p *Pipeline) Add(f Filter) *Pipeline {
	p.filters = append(p.filters, f)
	return p
}

// Evaluate runs the filters against the request and returns the decision.
func (p *Pipeline) Evaluate(ctx context.Context, req Request) Decision {
	for _, f := range p.filters {
		if f.Exempt(req) {
			slogx.FromContext(ctx).Debug("mfa challenge exempted",
				slog.String("filter", f.Name()),
			)
			return Decision{Exempt: true, MatchedFilter: f.Name()}
		}
	}
	return Decision{}
}
