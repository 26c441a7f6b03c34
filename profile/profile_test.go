package profile

import "testing"

func TestProfiler_EmptyModeIsNoop(t *testing.T) {
	s := Profiler{}.Start()
	if _, ok := s.(ignore); !ok {
		t.Fatalf("expected no-op stopper, got %T", s)
	}

	s.Stop()
}

func TestProfiler_UnknownModeIsNoop(t *testing.T) {
	s := Profiler{Mode: "no-such-mode", Dir: t.TempDir(), Quiet: true}.Start()
	defer s.Stop()

	if _, ok := s.(ignore); !ok {
		t.Fatalf("expected no-op stopper, got %T", s)
	}
}
