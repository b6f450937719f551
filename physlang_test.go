package physlang_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/physlang"
)

func compileOK(t *testing.T, src string) *physlang.Program {
	t.Helper()
	prog, diags := physlang.Compile("test.phys", []byte(src), physlang.DefaultOptions())
	require.False(t, diags.HasErrors(), "unexpected diagnostics: %v", diags.Items())
	require.NotNil(t, prog)
	return prog
}

func TestCompileAndRunSpringPair(t *testing.T) {
	src := `
particle a at (0, 0) mass 1.0;
particle b at (2, 0) mass 1.0;
force spring(a, b) k=1.0 rest=1.0;
simulate dt 0.1 steps 5;
detect dist = distance(a, b);
`
	prog := compileOK(t, src)
	results, violations, err := prog.Run()
	require.NoError(t, err)
	assert.Empty(t, violations)
	require.Len(t, results, 1)
	assert.Equal(t, "dist", results[0].Name)
	// the spring is stretched beyond rest length, so after 5 steps the
	// particles have moved closer together than their initial separation.
	assert.Less(t, results[0].Value, 2.0)
	assert.Greater(t, results[0].Value, 0.0)
}

func TestCompileAndRunGravityTwoBody(t *testing.T) {
	src := `
particle sun at (0, 0) mass 1000.0;
particle planet at (10, 0) mass 1.0;
force gravity(sun, planet) G=1.0;
simulate dt 0.01 steps 10;
detect px = position(planet).x;
`
	prog := compileOK(t, src)
	results, violations, err := prog.Run()
	require.NoError(t, err)
	assert.Empty(t, violations)
	require.Len(t, results, 1)
	// gravity pulls the much lighter planet toward the sun, so its x
	// position decreases from its initial 10.
	assert.Less(t, results[0].Value, 10.0)
}

func TestCompileAndRunLoopPushTrain(t *testing.T) {
	src := `
particle a at (0, 0) mass 1.0;
loop for 4 cycles with frequency 2.0 damping 0.0 on a {
	push(a) magnitude 1.0 direction (1, 0);
}
simulate dt 0.1 steps 10;
detect px = position(a).x;
`
	prog := compileOK(t, src)
	results, violations, err := prog.Run()
	require.NoError(t, err)
	assert.Empty(t, violations)
	require.Len(t, results, 1)
	// repeated pushes in +x with no opposing force leave the particle
	// somewhere to the right of its start.
	assert.Greater(t, results[0].Value, 0.0)
}

func TestCompileAndRunWellCapture(t *testing.T) {
	src := `
particle a at (0, 0) mass 1.0;
loop for 1 cycles with frequency 5.0 damping 0.0 on a {
	push(a) magnitude 20.0 direction (1, 0);
}
well w on a if position(a).x >= 5.0 depth 10.0;
simulate dt 0.01 steps 50;
detect px = position(a).x;
`
	prog := compileOK(t, src)
	results, violations, err := prog.Run()
	require.NoError(t, err)
	assert.Empty(t, violations)
	require.Len(t, results, 1)
	// the well activates once x crosses 5 and pulls back toward it, keeping
	// the particle from running away to infinity.
	assert.Less(t, results[0].Value, 1e6)
}

func TestCompileAndRunForUnrollMultipleParticles(t *testing.T) {
	src := `
for i in 0..4 {
	particle p at (i, 0) mass 1.0;
}
simulate dt 0.1 steps 1;
detect last_x = position(p_3).x;
`
	prog := compileOK(t, src)
	w := prog.World()
	require.Len(t, w.Particles, 4)

	results, violations, err := prog.Run()
	require.NoError(t, err)
	assert.Empty(t, violations)
	require.Len(t, results, 1)
	assert.InDelta(t, 3.0, results[0].Value, 1e-6)
}

func TestCompileReportsMissingSimulateDeclaration(t *testing.T) {
	src := `particle a at (0, 0) mass 1.0;`
	prog, diags := physlang.Compile("test.phys", []byte(src), physlang.DefaultOptions())
	assert.Nil(t, prog)
	assert.True(t, diags.HasErrors())
}

func TestCompileDeterministicAcrossRuns(t *testing.T) {
	src := `
particle a at (0, 0) mass 1.0;
particle b at (3, 0) mass 1.0;
force spring(a, b) k=2.0 rest=1.0;
simulate dt 0.05 steps 30;
detect dist = distance(a, b);
`
	prog1 := compileOK(t, src)
	prog2 := compileOK(t, src)

	r1, v1, err1 := prog1.Run()
	r2, v2, err2 := prog2.Run()
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, v1, v2)
	assert.Equal(t, r1, r2)
}

func TestCompileDeniesWarningsAsErrors(t *testing.T) {
	// frequency*dt = 10*0.1 = 1.0, well over the 0.5 aliasing guideline.
	src := `
particle a at (0, 0) mass 1.0;
loop for 1 cycles with frequency 10.0 damping 0.0 on a {
	push(a) magnitude 1.0 direction (1, 0);
}
simulate dt 0.1 steps 1;
`
	opts := physlang.DefaultOptions()
	opts.DenyWarnings = true
	prog, diags := physlang.Compile("test.phys", []byte(src), opts)
	assert.Nil(t, prog)
	assert.True(t, diags.HasErrors())
}

func TestStepIterDrivesSessionIncrementally(t *testing.T) {
	src := `
particle a at (0, 0) mass 1.0;
particle b at (2, 0) mass 1.0;
force spring(a, b) k=1.0 rest=1.0;
simulate dt 0.1 steps 3;
`
	prog := compileOK(t, src)
	sess := prog.StepIter()
	for i := 0; i < 3; i++ {
		violations, err := sess.Step()
		require.NoError(t, err)
		require.Empty(t, violations)
	}
	assert.Equal(t, 3, sess.State().Step)
}
