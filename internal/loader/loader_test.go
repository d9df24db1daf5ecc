package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anthropics/mscript/internal/types"
	"github.com/anthropics/mscript/internal/vm"
)

// writeDir materializes name->source as *.mscript files in a fresh
// temp directory and returns its path.
func writeDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
	return dir
}

// TestLoadSingleFileRuns mirrors spec §8's int_addition scenario end to
// end: directory scan, full pipeline, vm_run.
func TestLoadSingleFileRuns(t *testing.T) {
	dir := writeDir(t, map[string]string{
		"add.mscript": `int add(int a, int b) { return a + b; }`,
	})
	rt, err := Load(dir, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"add.mscript"}, rt.Names())

	prog, ok := rt.Program("add.mscript")
	require.True(t, ok, "add.mscript should have loaded: %v", errText(rt, "add.mscript"))

	m := vm.New(prog, vm.Options{})
	ret, err := m.Run("add", []types.Value{types.IntValue(7), types.IntValue(15)})
	require.NoError(t, err)
	require.Equal(t, int32(22), ret.IntVal)
}

// TestLoadGlobalAndFib exercises a file with both a global and a
// recursive function, matching spec §8's global_1/fib scenarios.
func TestLoadGlobalAndFib(t *testing.T) {
	dir := writeDir(t, map[string]string{
		"main.mscript": `
int counter = 41;

int bump() {
	counter = counter + 1;
	return counter;
}

int fib(int n) {
	if (n < 2) {
		return n;
	}
	return fib(n - 1) + fib(n - 2);
}
`,
	})
	rt, err := Load(dir, nil)
	require.NoError(t, err)

	prog, ok := rt.Program("main.mscript")
	require.True(t, ok)

	m := vm.New(prog, vm.Options{})
	ret, err := m.Run("bump", nil)
	require.NoError(t, err)
	require.Equal(t, int32(42), ret.IntVal)

	ret, err = m.Run("fib", []types.Value{types.IntValue(10)})
	require.NoError(t, err)
	require.Equal(t, int32(55), ret.IntVal)
}

// TestLoadCrossFileImport exercises spec §4.8's cross-file resolution:
// an importing file calls an imported function, reads an imported
// global, and references an imported struct type.
func TestLoadCrossFileImport(t *testing.T) {
	dir := writeDir(t, map[string]string{
		"geo.mscript": `
struct Point { int x, y; }

int origin_x = 100;

int taxicab(Point p) {
	return p.x + p.y;
}
`,
		"main.mscript": `
import "geo.mscript";

int run() {
	Point p = { x = 3, y = 4 };
	return taxicab(p) + origin_x;
}
`,
	})
	rt, err := Load(dir, nil)
	require.NoError(t, err)

	prog, ok := rt.Program("main.mscript")
	require.True(t, ok, "main.mscript should have loaded: %v", errText(rt, "main.mscript"))

	m := vm.New(prog, vm.Options{})
	ret, err := m.Run("run", nil)
	require.NoError(t, err)
	require.Equal(t, int32(3+4+100), ret.IntVal)

	// geo.mscript is itself a complete, independently runnable program.
	_, ok = rt.Program("geo.mscript")
	require.True(t, ok)
}

// TestLoadSiblingImportsDontCollide covers the case buildUnit's
// copyExports rebase exists for: two sibling files each declare their
// own global, and a third file imports both. Each inherited global must
// keep its own distinct storage rather than aliasing the other's.
func TestLoadSiblingImportsDontCollide(t *testing.T) {
	dir := writeDir(t, map[string]string{
		"a.mscript": `
int a_val = 10;
int get_a() { return a_val; }
`,
		"b.mscript": `
int b_val = 20;
int get_b() { return b_val; }
`,
		"main.mscript": `
import "a.mscript";
import "b.mscript";

int run() {
	return get_a() + get_b();
}
`,
	})
	rt, err := Load(dir, nil)
	require.NoError(t, err)

	prog, ok := rt.Program("main.mscript")
	require.True(t, ok, "main.mscript should have loaded: %v", errText(rt, "main.mscript"))

	m := vm.New(prog, vm.Options{})
	ret, err := m.Run("run", nil)
	require.NoError(t, err)
	require.Equal(t, int32(30), ret.IntVal)
}

// TestLoadNativeFunction exercises spec §6's native-callable wiring: a
// host-supplied Go function is reachable from script code via
// import_function, and the value it returns round-trips back into the
// script's own arithmetic.
func TestLoadNativeFunction(t *testing.T) {
	dir := writeDir(t, map[string]string{
		"main.mscript": `
import_function int host_double(int n);

int run(int n) {
	return host_double(n) + 1;
}
`,
	})
	natives := map[string]vm.NativeCall{
		"host_double": func(args []types.Value) types.Value {
			return types.IntValue(args[0].IntVal * 2)
		},
	}
	rt, err := Load(dir, natives)
	require.NoError(t, err)

	prog, ok := rt.Program("main.mscript")
	require.True(t, ok, "main.mscript should have loaded: %v", errText(rt, "main.mscript"))

	m := vm.New(prog, vm.Options{})
	ret, err := m.Run("run", []types.Value{types.IntValue(20)})
	require.NoError(t, err)
	require.Equal(t, int32(41), ret.IntVal)
}

// TestLoadMissingImportFails confirms a bad import path fails only the
// importing file, with a reportable diagnostic, while unrelated files
// in the same directory still load.
func TestLoadMissingImportFails(t *testing.T) {
	dir := writeDir(t, map[string]string{
		"ok.mscript": `int zero() { return 0; }`,
		"broken.mscript": `
import "nonexistent.mscript";
int run() { return 0; }
`,
	})
	rt, err := Load(dir, nil)
	require.NoError(t, err)

	_, ok := rt.Program("ok.mscript")
	require.True(t, ok)

	_, ok = rt.Program("broken.mscript")
	require.False(t, ok)
	d, ok := rt.Err("broken.mscript")
	require.True(t, ok)
	require.Equal(t, "import-failed", string(d.Kind))
}

// TestLoadImportCycleFails confirms a direct import cycle is reported
// rather than recursing forever.
func TestLoadImportCycleFails(t *testing.T) {
	dir := writeDir(t, map[string]string{
		"x.mscript": `
import "y.mscript";
int f() { return 0; }
`,
		"y.mscript": `
import "x.mscript";
int g() { return 0; }
`,
	})
	rt, err := Load(dir, nil)
	require.NoError(t, err)

	_, ok := rt.Program("x.mscript")
	require.False(t, ok)
	_, ok = rt.Program("y.mscript")
	require.False(t, ok)
}

// TestLoadArrayLiteralIndex is modeled on spec §8's array_1 scenario: a
// ten-element array literal [0..9], indexed back out at n - 1 (9 for n = 10).
func TestLoadArrayLiteralIndex(t *testing.T) {
	dir := writeDir(t, map[string]string{
		"arr.mscript": `
int array_1(int n) {
	int[] a = [0, 1, 2, 3, 4, 5, 6, 7, 8, 9];
	return a[n - 1];
}
`,
	})
	rt, err := Load(dir, nil)
	require.NoError(t, err)

	prog, ok := rt.Program("arr.mscript")
	require.True(t, ok, "arr.mscript should have loaded: %v", errText(rt, "arr.mscript"))

	m := vm.New(prog, vm.Options{})
	ret, err := m.Run("array_1", []types.Value{types.IntValue(10)})
	require.NoError(t, err)
	require.Equal(t, int32(9), ret.IntVal)
}

// TestLoadArrayForLoopSum mirrors spec §8's array_2(10) == 45 scenario:
// summing 0+1+...+9 via a for loop over an array built the same way.
func TestLoadArrayForLoopSum(t *testing.T) {
	dir := writeDir(t, map[string]string{
		"sum.mscript": `
int array_2(int n) {
	int[] a = [0, 1, 2, 3, 4, 5, 6, 7, 8, 9];
	int total = 0;
	for (int i = 0; i < n; i = i + 1) {
		total = total + a[i];
	}
	return total;
}
`,
	})
	rt, err := Load(dir, nil)
	require.NoError(t, err)

	prog, ok := rt.Program("sum.mscript")
	require.True(t, ok, "sum.mscript should have loaded: %v", errText(rt, "sum.mscript"))

	m := vm.New(prog, vm.Options{})
	ret, err := m.Run("array_2", []types.Value{types.IntValue(10)})
	require.NoError(t, err)
	require.Equal(t, int32(45), ret.IntVal)
}

// TestLoadGlobalCounterAcrossCalls mirrors spec §8's global_1(10) scenario
// exactly: global_1(10) returns 10 on the first call and 15 on the second
// call on the same VM, proving a global persists across vm_run calls.
func TestLoadGlobalCounterAcrossCalls(t *testing.T) {
	dir := writeDir(t, map[string]string{
		"counter.mscript": `
int counter = 0;

int global_1(int n) {
	counter += n;
	return counter;
}
`,
	})
	rt, err := Load(dir, nil)
	require.NoError(t, err)

	prog, ok := rt.Program("counter.mscript")
	require.True(t, ok, "counter.mscript should have loaded: %v", errText(rt, "counter.mscript"))

	m := vm.New(prog, vm.Options{})
	ret, err := m.Run("global_1", []types.Value{types.IntValue(10)})
	require.NoError(t, err)
	require.Equal(t, int32(10), ret.IntVal)

	ret, err = m.Run("global_1", []types.Value{types.IntValue(5)})
	require.NoError(t, err)
	require.Equal(t, int32(15), ret.IntVal)
}

// TestLoadVec3ScaleEndToEnd mirrors spec §8's
// vec3_scale(<7,15,23>, 5.0) == <35,75,115> scenario, confirming V3SCALE's
// operand order end to end from source text.
func TestLoadVec3ScaleEndToEnd(t *testing.T) {
	dir := writeDir(t, map[string]string{
		"scale.mscript": `
vec3 vec3_scale(vec3 v, float s) {
	return v * s;
}
`,
	})
	rt, err := Load(dir, nil)
	require.NoError(t, err)

	prog, ok := rt.Program("scale.mscript")
	require.True(t, ok, "scale.mscript should have loaded: %v", errText(rt, "scale.mscript"))

	m := vm.New(prog, vm.Options{})
	ret, err := m.Run("vec3_scale", []types.Value{types.Vec3Value(7, 15, 23), types.FloatValue(5)})
	require.NoError(t, err)
	require.Equal(t, [3]float32{35, 75, 115}, ret.Vec3Val)
}

func errText(rt *Runtime, name string) string {
	if d, ok := rt.Err(name); ok {
		return d.Error()
	}
	return "<no error recorded>"
}
