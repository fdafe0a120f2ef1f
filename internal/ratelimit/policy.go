// Package ratelimit caps request rates per client address and route class
// using fixed windows anchored at the first request of each window.
package ratelimit

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Class names a group of routes sharing one quota.
type Class string

const (
	ClassLogin    Class = "login"
	ClassRegister Class = "register"
	ClassWrite    Class = "write"
	ClassRead     Class = "read"
)

// Policy allows Limit requests per Window.
type Policy struct {
	Limit  int
	Window time.Duration
}

func (p Policy) String() string {
	return fmt.Sprintf("%d/%s", p.Limit, p.Window)
}

var units = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
}

// ParsePolicy parses "N/unit", "N per unit" or "N/<duration>", e.g.
// "5/minute", "60 per hour", "10/30s".
func ParsePolicy(s string) (Policy, error) {
	raw := strings.ToLower(strings.TrimSpace(s))
	n, unit, ok := strings.Cut(raw, "/")
	if !ok {
		n, unit, ok = strings.Cut(raw, " per ")
	}
	if !ok {
		return Policy{}, fmt.Errorf("rate policy %q: expected N/unit", s)
	}
	limit, err := strconv.Atoi(strings.TrimSpace(n))
	if err != nil || limit <= 0 {
		return Policy{}, fmt.Errorf("rate policy %q: bad limit", s)
	}
	unit = strings.TrimSpace(unit)
	window, ok := units[strings.TrimSuffix(unit, "s")]
	if !ok {
		window, err = time.ParseDuration(unit)
		if err != nil || window <= 0 {
			return Policy{}, fmt.Errorf("rate policy %q: bad window", s)
		}
	}
	return Policy{Limit: limit, Window: window}, nil
}

// Policies maps route classes to their quota.
type Policies map[Class]Policy

// ParsePolicies parses one policy string per class.
func ParsePolicies(specs map[Class]string) (Policies, error) {
	out := make(Policies, len(specs))
	for class, spec := range specs {
		p, err := ParsePolicy(spec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", class, err)
		}
		out[class] = p
	}
	return out, nil
}

// MaxWindow returns the longest window of any policy.
func (p Policies) MaxWindow() time.Duration {
	var longest time.Duration
	for _, pol := range p {
		longest = max(longest, pol.Window)
	}
	return longest
}
