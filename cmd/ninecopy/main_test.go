package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/ninecopy/ninecopy/internal/config"
)

// isolateConfig keeps the developer's own config file out of the tests.
func isolateConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	t.Setenv(config.EnvPath, path)
	return path
}

func newTree(t *testing.T) (src, dst string) {
	t.Helper()
	dir := t.TempDir()
	src = filepath.Join(dir, "src")
	dst = filepath.Join(dir, "dst")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "x.txt"), []byte("0123456789"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "b", "y.txt"), []byte("01234567890123456789"), 0o644))
	return src, dst
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestExecute_Copy(t *testing.T) {
	isolateConfig(t)
	src, dst := newTree(t)

	code, _, stderr := runCLI(t, "-t", "4", src, dst)

	assert.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stderr, "copied 2 (30 B)")
	data, err := os.ReadFile(filepath.Join(dst, "b", "y.txt"))
	require.NoError(t, err)
	assert.Len(t, data, 20)
}

func TestExecute_Verbose(t *testing.T) {
	isolateConfig(t)
	src, dst := newTree(t)

	code, stdout, _ := runCLI(t, "-v", "--color", "never", src, dst)

	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "x.txt  10 B")
	assert.Contains(t, stdout, filepath.Join("b", "y.txt")+"  20 B")
}

func TestExecute_Version(t *testing.T) {
	code, stdout, _ := runCLI(t, "-V")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "ninecopy dev\n", stdout)
}

func TestExecute_UsageErrors(t *testing.T) {
	isolateConfig(t)
	src, dst := newTree(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no arguments", nil},
		{"one argument", []string{src}},
		{"unknown flag", []string{"--frobnicate", src, dst}},
		{"overwrite and skip", []string{"-o", "-s", src, dst}},
		{"newer without skip", []string{"--copy-if-newer", src, dst}},
		{"larger without skip", []string{"--copy-if-larger", src, dst}},
		{"bad bwlimit", []string{"--bwlimit", "fast", src, dst}},
		{"bad symlink mode", []string{"--symlinks", "sometimes", src, dst}},
		{"bad color", []string{"--color", "rainbow", src, dst}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			assert.Equal(t, exitFailed, code)
			assert.Contains(t, stderr, "Error:")
			assert.NoDirExists(t, dst)
		})
	}
}

func TestExecute_MissingSource(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()

	code, _, stderr := runCLI(t, filepath.Join(dir, "missing"), filepath.Join(dir, "dst"))

	assert.Equal(t, exitFailed, code)
	assert.Contains(t, stderr, "source not found")
}

func TestExecute_ConflictAborts(t *testing.T) {
	isolateConfig(t)
	src, dst := newTree(t)
	require.NoError(t, os.MkdirAll(dst, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dst, "x.txt"), []byte("old"), 0o644))

	code, _, stderr := runCLI(t, "--color", "never", src, dst)

	assert.Equal(t, exitFailed, code)
	assert.Contains(t, stderr, "error: conflict x.txt: destination already exists")
}

func TestExecute_SkipThenPartial(t *testing.T) {
	isolateConfig(t)
	src, dst := newTree(t)

	code, _, _ := runCLI(t, src, dst)
	require.Equal(t, exitOK, code)

	code, _, stderr := runCLI(t, "-s", src, dst)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stderr, "copied 0 (0 B)  skipped 2 (30 B)")

	require.NoError(t, unix.Mkfifo(filepath.Join(src, "pipe"), 0o644))
	code, _, stderr = runCLI(t, "-s", "-c", "--color", "never", src, dst)
	assert.Equal(t, exitPartial, code)
	assert.Contains(t, stderr, "error: copy pipe:")
}

func TestExecute_ConfigDefaults(t *testing.T) {
	path := isolateConfig(t)
	src, dst := newTree(t)
	require.NoError(t, os.WriteFile(path, []byte(`
[defaults]
overwrite = true
exclude = ["b/"]
`), 0o644))

	code, _, stderr := runCLI(t, src, dst)
	require.Equal(t, exitOK, code, stderr)
	assert.NoDirExists(t, filepath.Join(dst, "b"))

	// overwrite comes from the config; the second run replaces x.txt.
	require.NoError(t, os.WriteFile(filepath.Join(src, "x.txt"), []byte("changed"), 0o644))
	code, _, stderr = runCLI(t, src, dst)
	require.Equal(t, exitOK, code, stderr)
	data, err := os.ReadFile(filepath.Join(dst, "x.txt"))
	require.NoError(t, err)
	assert.Equal(t, "changed", string(data))

	// A flag on the command line beats the config file.
	code, _, _ = runCLI(t, "--overwrite=false", src, dst)
	assert.Equal(t, exitFailed, code)
}

func TestExecute_CommandLinePolicyReplacesConfig(t *testing.T) {
	path := isolateConfig(t)
	src, dst := newTree(t)
	require.NoError(t, os.WriteFile(path, []byte(`
[defaults]
skip = true
copy_if_newer = true
`), 0o644))

	code, _, stderr := runCLI(t, src, dst)
	require.Equal(t, exitOK, code, stderr)

	// -o drops the config's skip and copy_if_newer instead of clashing.
	require.NoError(t, os.WriteFile(filepath.Join(src, "x.txt"), []byte("changed"), 0o644))
	code, _, stderr = runCLI(t, "-o", src, dst)
	require.Equal(t, exitOK, code, stderr)
	data, err := os.ReadFile(filepath.Join(dst, "x.txt"))
	require.NoError(t, err)
	assert.Equal(t, "changed", string(data))

	// And the reverse: -s on the command line drops a configured overwrite.
	require.NoError(t, os.WriteFile(path, []byte("[defaults]\noverwrite = true\n"), 0o644))
	code, _, stderr = runCLI(t, "-s", "--color", "never", src, dst)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stderr, "skipped 2 (27 B)")
}

func TestExecute_InvalidOptionsLeaveNoLogFile(t *testing.T) {
	isolateConfig(t)
	src, dst := newTree(t)
	logPath := filepath.Join(t.TempDir(), "run.json")

	code, _, stderr := runCLI(t, "--copy-if-newer", "--log", logPath, src, dst)

	assert.Equal(t, exitFailed, code)
	assert.Contains(t, stderr, "--copy-if-newer requires --skip")
	assert.NoFileExists(t, logPath)
	assert.NoDirExists(t, dst)
}

func TestExecute_FilterFlags(t *testing.T) {
	isolateConfig(t)
	src, dst := newTree(t)
	rules := filepath.Join(t.TempDir(), "rules")
	require.NoError(t, os.WriteFile(rules, []byte("- *.txt\n"), 0o644))

	code, _, stderr := runCLI(t, "--include", "y.txt", "--filter", rules, src, dst)

	require.Equal(t, exitOK, code, stderr)
	assert.FileExists(t, filepath.Join(dst, "b", "y.txt"))
	assert.NoFileExists(t, filepath.Join(dst, "x.txt"))
}

func TestExecute_LogFile(t *testing.T) {
	isolateConfig(t)
	src, dst := newTree(t)
	logPath := filepath.Join(t.TempDir(), "run.json")

	code, _, _ := runCLI(t, "-q", "--log", logPath, src, dst)

	require.Equal(t, exitOK, code)
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"ninecopy.event"`)
	assert.Contains(t, string(data), `"type":"FileCopied"`)
}

func TestBuildOptions(t *testing.T) {
	opts, err := buildOptions(&cliFlags{skip: true, copyIfNewer: true, bwLimit: "10MiB", symlinks: "follow", threads: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(10<<20), opts.BWLimit)
	assert.Equal(t, "follow", string(opts.Symlinks))
	assert.Equal(t, 3, opts.Threads)
}
