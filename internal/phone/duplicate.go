package phone

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Policy decides what a failed duplicate lookup means.
type Policy string

const (
	// FailOpen treats a lookup error as "not a duplicate".
	FailOpen Policy = "fail_open"
	// FailClosed treats a lookup error as "duplicate", so the candidate is skipped.
	FailClosed Policy = "fail_closed"
)

// ParsePolicy maps a configuration value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", FailOpen:
		return FailOpen, nil
	case FailClosed:
		return FailClosed, nil
	}
	return "", eris.Errorf("phone: unknown dedup policy %q", s)
}

// Finder looks a normalized number up in every store that can own it
// (leads and users).
type Finder interface {
	FindDuplicate(ctx context.Context, e164 string) (bool, error)
}

// DuplicateChecker answers whether a normalized phone already belongs to a
// lead or a user.
type DuplicateChecker struct {
	finder Finder
	policy Policy
}

// NewDuplicateChecker returns a checker backed by f.
func NewDuplicateChecker(f Finder, p Policy) *DuplicateChecker {
	if p == "" {
		p = FailOpen
	}
	return &DuplicateChecker{finder: f, policy: p}
}

// IsDuplicate never returns an error; lookup failures are resolved by the
// checker's policy.
func (d *DuplicateChecker) IsDuplicate(ctx context.Context, e164 string) bool {
	dup, err := d.finder.FindDuplicate(ctx, e164)
	if err == nil {
		return dup
	}
	failClosed := d.policy == FailClosed
	zap.L().Warn("phone: duplicate check failed",
		zap.String("phone", e164),
		zap.String("policy", string(d.policy)),
		zap.Bool("treated_as_duplicate", failClosed),
		zap.Error(err),
	)
	return failClosed
}
