package rtsched

import "testing"

func TestClampPriority(t *testing.T) {
	if got := ClampPriority(0); got != Policy.Min {
		t.Errorf("got %d, want min %d", got, Policy.Min)
	}
	if got := ClampPriority(1000); got != Policy.Max {
		t.Errorf("got %d, want max %d", got, Policy.Max)
	}
	if got := ClampPriority(50); got != 50 {
		t.Errorf("got %d, want 50", got)
	}
}

func TestNumCoresPositive(t *testing.T) {
	if NumCores() <= 0 {
		t.Error("expected positive core count")
	}
}

func TestApplyRoleDisabledIsNoOp(t *testing.T) {
	errs := ApplyRole(RoleDemod, false, 50, 0, false)
	if len(errs) != 0 {
		t.Errorf("expected no errors when disabled, got %v", errs)
	}
}
