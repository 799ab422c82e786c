//go:build !pprof

package profile

import "testing"

func TestModes_NoPprof(t *testing.T) {
	t.Parallel()

	if m := Modes(); len(m) != 0 {
		t.Errorf("Modes() = %v, want none", m)
	}

	if Make(WithMode("cpu")).Enabled() {
		t.Error("cpu enabled without pprof build tag")
	}
}
