package sampler

import "testing"

func TestStrideMatchesSamplingDensity(t *testing.T) {
	plan := New(30, 3000, 300, 2)

	if plan.Stride != 15 {
		t.Fatalf("expected stride 15 for 30fps at 2 samples/sec, got %d", plan.Stride)
	}
	if plan.MaxFrames != 3000 {
		t.Fatalf("expected max frames 3000, got %d", plan.MaxFrames)
	}
}

func TestDurationLimitCapsScan(t *testing.T) {
	plan := New(10, 10000, 30, 2)

	if plan.MaxFrames != 300 {
		t.Fatalf("expected duration limit to cap at 300 frames, got %d", plan.MaxFrames)
	}
}

func TestZeroFPSFallsBackToFixedStride(t *testing.T) {
	// Corrupt metadata must never divide by zero.
	plan := New(0, 450, 300, 2)

	if plan.Stride != FallbackStride {
		t.Fatalf("expected fallback stride %d, got %d", FallbackStride, plan.Stride)
	}
	if plan.MaxFrames != 450 {
		t.Fatalf("expected max frames 450, got %d", plan.MaxFrames)
	}
	if !plan.Take(0) {
		t.Fatal("first frame must always be sampled")
	}
}

func TestStrideNeverBelowOne(t *testing.T) {
	plan := New(1, 100, 300, 2)

	if plan.Stride != 1 {
		t.Fatalf("expected stride clamped to 1, got %d", plan.Stride)
	}
}

func TestFirstEligibleFrameAlwaysTaken(t *testing.T) {
	plan := New(24, 240, 300, 2)

	if !plan.Take(0) {
		t.Fatal("frame 0 must be taken")
	}
}

func TestSampleCountNeverExceedsBudget(t *testing.T) {
	cases := []struct {
		fps       float64
		frames    int
		limit     float64
		perSecond int
	}{
		{30, 3000, 300, 2},
		{10, 100, 10, 2},
		{0, 450, 300, 2},
		{25, 7, 1, 4},
	}

	for _, tc := range cases {
		plan := New(tc.fps, tc.frames, tc.limit, tc.perSecond)
		taken := 0
		for i := 0; i < tc.frames+10; i++ {
			if plan.Take(i) {
				taken++
			}
		}
		if budget := plan.SampleBudget(); taken > budget {
			t.Fatalf("fps=%v frames=%d: took %d samples, budget %d", tc.fps, tc.frames, taken, budget)
		}
	}
}

func TestTakeRejectsOutOfRangeIndices(t *testing.T) {
	plan := New(10, 20, 300, 2)

	if plan.Take(20) {
		t.Fatal("index at max frames must not be taken")
	}
	if plan.InRange(20) {
		t.Fatal("index at max frames must be out of range")
	}
}
