package service

import "testing"

func TestAuthPolicy_Observe(t *testing.T) {
	p := NewAuthPolicy(3)

	steps := []struct {
		ok   bool
		want AuthAction
		cnt  int
	}{
		{false, AuthKeep, 1},
		{false, AuthKeep, 2},
		{true, AuthKeep, 0},
		{false, AuthKeep, 1},
		{false, AuthKeep, 2},
		{false, AuthRenew, 0},
		{false, AuthKeep, 1},
	}
	for i, s := range steps {
		if got := p.Observe(s.ok); got != s.want {
			t.Fatalf("step %d: Observe(%v) = %v, want %v", i, s.ok, got, s.want)
		}
		if p.Consecutive() != s.cnt {
			t.Fatalf("step %d: consecutive = %d, want %d", i, p.Consecutive(), s.cnt)
		}
	}
}

func TestAuthPolicy_ZeroThresholdNeverRenews(t *testing.T) {
	p := &AuthPolicy{}
	for i := 0; i < 50; i++ {
		if p.Observe(false) == AuthRenew {
			t.Fatalf("renewed with threshold 0")
		}
	}
}

func TestAuthAction_String(t *testing.T) {
	if AuthKeep.String() != "keep" || AuthRenew.String() != "renew" {
		t.Fatalf("unexpected names %q %q", AuthKeep, AuthRenew)
	}
}
