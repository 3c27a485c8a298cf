package origin

import (
	"fmt"
	"net/url"
	"strings"
)

// Policy decides which message origins are trusted for a channel
// configuration. The document's own origin is always trusted; a
// cross-origin peer target adds its origin to the trusted set, while a
// same-origin relative target adds nothing.
type Policy struct {
	selfOrigin   string
	targetOrigin string
	probeBase    string
}

// New builds a policy from the host's own origin and the configured peer
// target. The target is either a root-relative path (same-origin proxy)
// or an absolute URL (cross-origin peer).
func New(selfOrigin, peerTarget string) (*Policy, error) {
	self, err := normalize(selfOrigin)
	if err != nil {
		return nil, fmt.Errorf("invalid self origin %q: %w", selfOrigin, err)
	}

	p := &Policy{selfOrigin: self}

	if strings.HasPrefix(peerTarget, "/") {
		// Same-origin proxy: reachability checks go through our own origin.
		p.probeBase = self + strings.TrimSuffix(peerTarget, "/")
		return p, nil
	}

	target, err := normalize(peerTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid peer target %q: %w", peerTarget, err)
	}
	p.targetOrigin = target
	p.probeBase = strings.TrimSuffix(peerTarget, "/")
	return p, nil
}

// IsTrusted reports whether an observed message origin is acceptable.
// Untrusted origins are expected noise; callers drop them silently.
func (p *Policy) IsTrusted(observed string) bool {
	norm, err := normalize(observed)
	if err != nil {
		return false
	}
	if norm == p.selfOrigin {
		return true
	}
	return p.targetOrigin != "" && norm == p.targetOrigin
}

// TargetOrigin returns the trusted cross-origin peer origin, or the host's
// own origin for a same-origin target. Outbound dispatch is addressed here.
func (p *Policy) TargetOrigin() string {
	if p.targetOrigin != "" {
		return p.targetOrigin
	}
	return p.selfOrigin
}

// SelfOrigin returns the host's own normalized origin.
func (p *Policy) SelfOrigin() string {
	return p.selfOrigin
}

// ProbeBase returns the base address for out-of-band reachability checks.
// The health endpoint lives at ProbeBase() + "/health".
func (p *Policy) ProbeBase() string {
	return p.probeBase
}

// normalize reduces a URL or origin string to scheme://host[:port].
func normalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("missing scheme or host")
	}
	return strings.ToLower(u.Scheme + "://" + u.Host), nil
}
