package service

// AuthAction is what the poller should do with its session after a tick.
type AuthAction int

const (
	// AuthKeep leaves the current session in place.
	AuthKeep AuthAction = iota
	// AuthRenew asks for a fresh client and login.
	AuthRenew
)

func (a AuthAction) String() string {
	if a == AuthRenew {
		return "renew"
	}
	return "keep"
}

// AuthPolicy counts consecutive tick failures and decides when the session
// must be rebuilt. It knows nothing about sleeping or retry pacing.
type AuthPolicy struct {
	Threshold   int
	consecutive int
}

func NewAuthPolicy(threshold int) *AuthPolicy {
	return &AuthPolicy{Threshold: threshold}
}

// Observe records a tick outcome. Reaching the threshold returns AuthRenew and
// resets the counter, whether or not the renewal later succeeds.
func (p *AuthPolicy) Observe(ok bool) AuthAction {
	if ok {
		p.consecutive = 0
		return AuthKeep
	}
	p.consecutive++
	if p.Threshold > 0 && p.consecutive >= p.Threshold {
		p.consecutive = 0
		return AuthRenew
	}
	return AuthKeep
}

// Consecutive is the current failure streak.
func (p *AuthPolicy) Consecutive() int { return p.consecutive }
