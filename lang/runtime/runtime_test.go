package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/physlang/lang/runtime"
	"github.com/mna/physlang/lang/world"
)

func TestStepFreeParticleStaysAtRest(t *testing.T) {
	w := &world.World{
		Particles: []world.Particle{{Index: 0, Name: "a", X0: 1, Y0: 2, Mass: 1}},
		Simulate:  world.SimulateConfig{Dt: 0.1, Steps: 5},
	}
	sess := runtime.NewSession(w)
	for i := 0; i < 5; i++ {
		violations, err := sess.Step()
		require.NoError(t, err)
		require.Empty(t, violations)
	}
	st := sess.State()
	assert.Equal(t, float32(1), st.PosX[0])
	assert.Equal(t, float32(2), st.PosY[0])
	assert.Equal(t, float32(0), st.VelX[0])
	assert.Equal(t, float32(0), st.VelY[0])
}

func TestStepGravityPullsParticlesTogether(t *testing.T) {
	w := &world.World{
		Particles: []world.Particle{
			{Index: 0, Name: "a", X0: 0, Y0: 0, Mass: 1},
			{Index: 1, Name: "b", X0: 10, Y0: 0, Mass: 1},
		},
		Forces:   []world.BinaryForce{{Kind: world.Gravity, A: 0, B: 1, G: 1}},
		Simulate: world.SimulateConfig{Dt: 0.01, Steps: 1},
	}
	sess := runtime.NewSession(w)
	_, err := sess.Step()
	require.NoError(t, err)
	st := sess.State()
	// gravity pulls a toward b (positive x) and b toward a (negative x).
	assert.Greater(t, st.VelX[0], float32(0))
	assert.Less(t, st.VelX[1], float32(0))
	assert.Greater(t, st.PosX[0], float32(0))
	assert.Less(t, st.PosX[1], float32(10))
}

func TestStepSpringRestoresTowardRestLength(t *testing.T) {
	w := &world.World{
		Particles: []world.Particle{
			{Index: 0, Name: "a", X0: 0, Y0: 0, Mass: 1},
			{Index: 1, Name: "b", X0: 2, Y0: 0, Mass: 1},
		},
		Forces:   []world.BinaryForce{{Kind: world.Spring, A: 0, B: 1, K: 1, Rest: 1}},
		Simulate: world.SimulateConfig{Dt: 0.01, Steps: 1},
	}
	sess := runtime.NewSession(w)
	_, err := sess.Step()
	require.NoError(t, err)
	st := sess.State()
	// distance (2) exceeds rest length (1), so the spring pulls a toward b
	// and b toward a.
	assert.Greater(t, st.VelX[0], float32(0))
	assert.Less(t, st.VelX[1], float32(0))
}

func TestStepWellPushesBackPastThreshold(t *testing.T) {
	w := &world.World{
		Particles: []world.Particle{{Index: 0, Name: "a", X0: 6, Y0: 0, Mass: 1}},
		Wells:     []world.Well{{Owner: 0, Threshold: 5, Depth: 2}},
		Simulate:  world.SimulateConfig{Dt: 0.01, Steps: 1},
	}
	sess := runtime.NewSession(w)
	_, err := sess.Step()
	require.NoError(t, err)
	st := sess.State()
	// fx = -Depth*(x - threshold) = -2*(6-5) = -2, so velocity goes negative.
	assert.Less(t, st.VelX[0], float32(0))
}

func TestStepWellInactiveBeforeThreshold(t *testing.T) {
	w := &world.World{
		Particles: []world.Particle{{Index: 0, Name: "a", X0: 4, Y0: 0, Mass: 1}},
		Wells:     []world.Well{{Owner: 0, Threshold: 5, Depth: 2}},
		Simulate:  world.SimulateConfig{Dt: 0.01, Steps: 1},
	}
	sess := runtime.NewSession(w)
	_, err := sess.Step()
	require.NoError(t, err)
	st := sess.State()
	assert.Equal(t, float32(0), st.VelX[0])
}

func TestLoopForCyclesFiresExactCountThenDeactivates(t *testing.T) {
	// frequency*dt = 0.5 per step, so the phase (starting at 0) crosses 2*pi
	// every 2 steps: fires on steps 2 and 4, then the loop is exhausted.
	w := &world.World{
		Particles: []world.Particle{{Index: 0, Name: "a", X0: 0, Y0: 0, Mass: 1}},
		Loops: []world.Loop{{
			Kind: world.ForCycles, Cycles: 2, Frequency: 1.0, Damping: 0.0, Target: 0,
			Body: []world.PushRecord{{Target: 0, Magnitude: 3.0, DirX: 1, DirY: 0}},
		}},
		Simulate: world.SimulateConfig{Dt: 0.5, Steps: 6},
	}
	sess := runtime.NewSession(w)
	var totalVelBefore float32
	for i := 0; i < 6; i++ {
		_, err := sess.Step()
		require.NoError(t, err)
	}
	st := sess.State()
	// exactly two firings of magnitude 3 along +x: total impulse is 6,
	// undiminished by mass division or decay.
	assert.InDelta(t, 6.0, float64(st.VelX[0]), 1e-3)
	require.Len(t, st.LoopActive, 1)
	assert.False(t, st.LoopActive[0])
	_ = totalVelBefore
}

func TestLoopWhileGuardDeactivatesWhenConditionFalse(t *testing.T) {
	w := &world.World{
		Particles: []world.Particle{{Index: 0, Name: "a", X0: 0, Y0: 0, Mass: 1}},
		Loops: []world.Loop{{
			Kind: world.WhileGuard,
			Guard: world.Guard{
				Obs: world.ObsPositionX, A: 0, Op: world.OpLT, RHS: -100,
			},
			Frequency: 1.0, Damping: 0.0, Target: 0,
			Body: []world.PushRecord{{Target: 0, Magnitude: 1.0, DirX: 1, DirY: 0}},
		}},
		Simulate: world.SimulateConfig{Dt: 0.1, Steps: 3},
	}
	sess := runtime.NewSession(w)
	// the guard (position < -100) is false from the very first step, since
	// the particle starts at x=0, so the loop deactivates immediately and
	// never fires.
	_, err := sess.Step()
	require.NoError(t, err)
	st := sess.State()
	require.Len(t, st.LoopActive, 1)
	assert.False(t, st.LoopActive[0])
	assert.Equal(t, float32(0), st.VelX[0])
}

func TestStepDetectsVelocityViolation(t *testing.T) {
	w := &world.World{
		Particles: []world.Particle{
			{Index: 0, Name: "a", X0: 0, Y0: 0, Mass: 1},
			{Index: 1, Name: "b", X0: 1, Y0: 0, Mass: 1},
		},
		Forces:   []world.BinaryForce{{Kind: world.Spring, A: 0, B: 1, K: 1e20, Rest: 0}},
		Simulate: world.SimulateConfig{Dt: 0.1, Steps: 1},
	}
	sess := runtime.NewSession(w)
	violations, err := sess.Step()
	require.NoError(t, err)
	require.NotEmpty(t, violations)

	codes := map[string]bool{}
	for _, v := range violations {
		codes[v.Code] = true
	}
	assert.True(t, codes["E2003"] || codes["E2002"] || codes["E2001"])
}

func TestSessionHaltsAfterViolation(t *testing.T) {
	w := &world.World{
		Particles: []world.Particle{
			{Index: 0, Name: "a", X0: 0, Y0: 0, Mass: 1},
			{Index: 1, Name: "b", X0: 1, Y0: 0, Mass: 1},
		},
		Forces:   []world.BinaryForce{{Kind: world.Spring, A: 0, B: 1, K: 1e20, Rest: 0}},
		Simulate: world.SimulateConfig{Dt: 0.1, Steps: 5},
	}
	sess := runtime.NewSession(w)
	violations, err := sess.Step()
	require.NoError(t, err)
	require.NotEmpty(t, violations)

	_, err = sess.Step()
	assert.Error(t, err, "a halted session must reject further Step calls")
}

func TestSessionStopsAtConfiguredStepBudget(t *testing.T) {
	w := &world.World{
		Particles: []world.Particle{{Index: 0, Name: "a", X0: 0, Y0: 0, Mass: 1}},
		Simulate:  world.SimulateConfig{Dt: 0.1, Steps: 2},
	}
	sess := runtime.NewSession(w)
	_, err := sess.RunTo(10)
	require.NoError(t, err)
	assert.Equal(t, 2, sess.State().Step)

	_, err = sess.Step()
	assert.Error(t, err, "stepping past the configured step budget must fail")
}

func TestPeekDoesNotMutateSession(t *testing.T) {
	w := &world.World{
		Particles: []world.Particle{
			{Index: 0, Name: "a", X0: 0, Y0: 0, Mass: 1},
			{Index: 1, Name: "b", X0: 2, Y0: 0, Mass: 1},
		},
		Forces:   []world.BinaryForce{{Kind: world.Spring, A: 0, B: 1, K: 1, Rest: 1}},
		Simulate: world.SimulateConfig{Dt: 0.1, Steps: 10},
	}
	sess := runtime.NewSession(w)
	before := sess.State()

	peeked, violations, err := sess.Peek(3)
	require.NoError(t, err)
	require.Empty(t, violations)
	assert.Equal(t, 3, peeked.Step)

	after := sess.State()
	assert.Equal(t, before.Step, after.Step)
	assert.Equal(t, before.PosX, after.PosX)
	assert.Equal(t, before.VelX, after.VelX)
}

func TestResetRestoresInitialState(t *testing.T) {
	w := &world.World{
		Particles: []world.Particle{{Index: 0, Name: "a", X0: 5, Y0: 0, Mass: 1}},
		Forces:    nil,
		Loops: []world.Loop{{
			Kind: world.ForCycles, Cycles: 1, Frequency: 10.0, Damping: 0.0, Target: 0,
			Body: []world.PushRecord{{Target: 0, Magnitude: 1.0, DirX: 1, DirY: 0}},
		}},
		Simulate: world.SimulateConfig{Dt: 0.1, Steps: 3},
	}
	sess := runtime.NewSession(w)
	_, err := sess.RunTo(3)
	require.NoError(t, err)
	require.NotEqual(t, float32(0), sess.State().VelX[0])

	sess.Reset()
	st := sess.State()
	assert.Equal(t, 0, st.Step)
	assert.Equal(t, float32(5), st.PosX[0])
	assert.Equal(t, float32(0), st.VelX[0])
	assert.True(t, st.LoopActive[0])
}

func TestDetectPositionAndDistance(t *testing.T) {
	w := &world.World{
		Particles: []world.Particle{
			{Index: 0, Name: "a", X0: 0, Y0: 0, Mass: 1},
			{Index: 1, Name: "b", X0: 3, Y0: 4, Mass: 1},
		},
		Detectors: []world.Detector{
			{Name: "ax", Kind: world.DetPositionX, A: 0},
			{Name: "dist", Kind: world.DetDistance, A: 0, B: 1},
		},
		Simulate: world.SimulateConfig{Dt: 0.1, Steps: 1},
	}
	sess := runtime.NewSession(w)
	results := sess.Detect()
	require.Len(t, results, 2)
	assert.Equal(t, "ax", results[0].Name)
	assert.InDelta(t, 0.0, results[0].Value, 1e-9)
	assert.Equal(t, "dist", results[1].Name)
	assert.InDelta(t, 5.0, results[1].Value, 1e-9)
}

func TestDeterministicReplay(t *testing.T) {
	newWorld := func() *world.World {
		return &world.World{
			Particles: []world.Particle{
				{Index: 0, Name: "a", X0: 0, Y0: 0, Mass: 1},
				{Index: 1, Name: "b", X0: 2, Y0: 0, Mass: 1},
			},
			Forces:   []world.BinaryForce{{Kind: world.Spring, A: 0, B: 1, K: 4, Rest: 1}},
			Simulate: world.SimulateConfig{Dt: 0.05, Steps: 20},
		}
	}
	s1 := runtime.NewSession(newWorld())
	s2 := runtime.NewSession(newWorld())
	for i := 0; i < 20; i++ {
		v1, err1 := s1.Step()
		v2, err2 := s2.Step()
		require.NoError(t, err1)
		require.NoError(t, err2)
		require.Equal(t, v1, v2)
	}
	assert.Equal(t, s1.State(), s2.State())
}
