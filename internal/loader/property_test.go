package loader

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anthropics/mscript/internal/types"
	"github.com/anthropics/mscript/internal/vm"
)

// TestConstantFoldingAgreesWithVM is spec §8's Property test: for random
// int arithmetic, the value the checker constant-folds at compile time
// (stored straight into a global's initial bytes) and the value the VM
// computes by re-deriving the same expression at runtime through a
// function call must agree. foldedGlobal and ranAtRuntime are built from
// the same (a op b) expression text so any divergence between folding
// and execution would show up as a mismatch.
func TestConstantFoldingAgreesWithVM(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	ops := []string{"+", "-", "*"}
	// mscript has no unary minus, so a negative operand is written as
	// (0 - n) in the source text.
	lit := func(n int32) string {
		if n < 0 {
			return fmt.Sprintf("(0 - %d)", -n)
		}
		return fmt.Sprint(n)
	}

	for i := 0; i < 20; i++ {
		a := rng.Int31n(1000) - 500
		b := rng.Int31n(1000) - 500
		op := ops[rng.Intn(len(ops))]

		src := fmt.Sprintf(`
int folded = %s %s %s;
int runtime_compute(int x, int y) { return x %s y; }
int read_folded() { return folded; }
`, lit(a), op, lit(b), op)

		dir := writeDir(t, map[string]string{"prop.mscript": src})
		rt, err := Load(dir, nil)
		require.NoError(t, err, "load failed for %q: %v", src, errText(rt, "prop.mscript"))

		prog, ok := rt.Program("prop.mscript")
		require.True(t, ok, "prop.mscript should have loaded: %v", errText(rt, "prop.mscript"))

		m := vm.New(prog, vm.Options{})
		folded, err := m.Run("read_folded", nil)
		require.NoError(t, err)

		runtimeVal, err := m.Run("runtime_compute", []types.Value{types.IntValue(a), types.IntValue(b)})
		require.NoError(t, err)

		require.Equal(t, runtimeVal.IntVal, folded.IntVal,
			"constant-folded %d %s %d = %d, but the VM computed %d", a, op, b, folded.IntVal, runtimeVal.IntVal)
	}
}

// TestStructGlobalRoundTrip is spec §8's Property test: a struct-typed
// global's fields, written through accessor functions, must read back
// exactly as written after going through the loader's globals-section
// layout and the VM's member-access addressing — struct field offsets
// computed at check time must agree with the byte layout the VM
// actually reads and writes.
func TestStructGlobalRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	dir := writeDir(t, map[string]string{
		"point.mscript": `
struct Point { int x; int y; float z; }
Point origin = { x = 0, y = 0, z = 0.0 };

void set_point(int x, int y, float z) {
	origin.x = x;
	origin.y = y;
	origin.z = z;
}

int get_x() { return origin.x; }
int get_y() { return origin.y; }
float get_z() { return origin.z; }
`,
	})
	rt, err := Load(dir, nil)
	require.NoError(t, err)
	prog, ok := rt.Program("point.mscript")
	require.True(t, ok, "point.mscript should have loaded: %v", errText(rt, "point.mscript"))

	for i := 0; i < 10; i++ {
		x := rng.Int31n(2000) - 1000
		y := rng.Int31n(2000) - 1000
		z := rng.Float32()*2000 - 1000

		m := vm.New(prog, vm.Options{})
		_, err := m.Run("set_point", []types.Value{types.IntValue(x), types.IntValue(y), types.FloatValue(z)})
		require.NoError(t, err)

		gotX, err := m.Run("get_x", nil)
		require.NoError(t, err)
		gotY, err := m.Run("get_y", nil)
		require.NoError(t, err)
		gotZ, err := m.Run("get_z", nil)
		require.NoError(t, err)

		require.Equal(t, x, gotX.IntVal)
		require.Equal(t, y, gotY.IntVal)
		require.InDelta(t, z, gotZ.FloatVal, 0.0001)
	}
}
