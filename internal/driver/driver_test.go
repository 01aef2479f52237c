// Exercises the driver end-to-end through the real filesystem: New builds
// the embedded grammar/table once, Run drives a source file through the
// full pipeline and writes the sidecar files it produces.
package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"vslrv/internal/cli"
)

func TestNewBuildsGrammarAndTable(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	require.NotNil(t, c.grammar)
	require.NotNil(t, c.table)
}

// Compiling a clean source file writes every non-.err sidecar and produces
// no .err file.
func TestRunCompilesCleanFileAndWritesSidecars(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.src")
	require.NoError(t, os.WriteFile(path, []byte("int x; x=1;"), 0644))

	c, err := New()
	require.NoError(t, err)
	require.NoError(t, c.Run(cli.Options{Path: path}))

	base := filepath.Join(dir, "prog")
	for _, ext := range []string{".tokens", ".cst", ".ast", ".ir", ".alloc", ".s"} {
		require.FileExists(t, base+ext, "missing sidecar %s", ext)
	}
	_, statErr := os.Stat(base + ".err")
	require.True(t, os.IsNotExist(statErr), "a clean compile must not produce a .err file")

	asm, err := os.ReadFile(base + ".s")
	require.NoError(t, err)
	require.Contains(t, string(asm), "__main__:")
}

// A semantic error is reported to <base>.err and the pipeline stops before
// emitting IR or assembly sidecars.
func TestRunReportsSemanticErrorToErrFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.src")
	require.NoError(t, os.WriteFile(path, []byte("int x; y=1;"), 0644))

	c, err := New()
	require.NoError(t, err)
	require.NoError(t, c.Run(cli.Options{Path: path}))

	base := filepath.Join(dir, "bad")
	errContent, err := os.ReadFile(base + ".err")
	require.NoError(t, err)
	require.Contains(t, string(errContent), "Semantic")

	_, statErr := os.Stat(base + ".ir")
	require.True(t, os.IsNotExist(statErr), "a failed check stage must not produce downstream sidecars")
}

// -check suppresses every sidecar except stderr diagnostics.
func TestRunCheckModeSuppressesSidecars(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.src")
	require.NoError(t, os.WriteFile(path, []byte("int x; x=1;"), 0644))

	c, err := New()
	require.NoError(t, err)
	require.NoError(t, c.Run(cli.Options{Path: path, Check: true}))

	base := filepath.Join(dir, "prog")
	for _, ext := range []string{".tokens", ".cst", ".ast", ".ir", ".alloc", ".s", ".err"} {
		_, statErr := os.Stat(base + ext)
		require.True(t, os.IsNotExist(statErr), "-check must suppress sidecar %s", ext)
	}
}

// Directory mode compiles every .src file and deletes stale sidecars first.
func TestRunDirectoryModeDeletesStaleSidecarsAndCompilesAll(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.src")
	b := filepath.Join(dir, "b.src")
	require.NoError(t, os.WriteFile(a, []byte("int x; x=1;"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("int y; y=2;"), 0644))
	stale := filepath.Join(dir, "a.ir")
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0644))

	c, err := New()
	require.NoError(t, err)
	require.NoError(t, c.Run(cli.Options{Path: dir}))

	require.FileExists(t, filepath.Join(dir, "a.s"))
	require.FileExists(t, filepath.Join(dir, "b.s"))
	content, err := os.ReadFile(filepath.Join(dir, "a.ir"))
	require.NoError(t, err)
	require.NotEqual(t, "stale", string(content))
}

func TestRunUnreadablePathIsError(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	require.Error(t, c.Run(cli.Options{Path: filepath.Join(t.TempDir(), "missing.src")}))
}
