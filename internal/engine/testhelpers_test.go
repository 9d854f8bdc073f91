package engine_test

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// createTestTree populates root with a standard test tree:
//
//	root.txt          (17 bytes)
//	big.bin           (320KB)
//	sub/mid.txt       (19 bytes)
//	sub/deep/leaf.txt (17 bytes)
//	link.txt          → root.txt (symlink)
func createTestTree(t *testing.T, root string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub", "deep"), 0o755))
	writeFile(t, filepath.Join(root, "root.txt"), "root file content")
	writeFile(t, filepath.Join(root, "big.bin"), string(bytes.Repeat([]byte("ABCDEFGHIJKLMNOP"), 20000)))
	writeFile(t, filepath.Join(root, "sub", "mid.txt"), "middle file content")
	writeFile(t, filepath.Join(root, "sub", "deep", "leaf.txt"), "leaf file content")
	require.NoError(t, os.Symlink("root.txt", filepath.Join(root, "link.txt")))
}

// testTreeFiles is the number of non-directory entries createTestTree makes.
const testTreeFiles = 5

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func setMtime(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// treeEntry is the comparable shape of one path in a tree.
type treeEntry struct {
	Path    string
	Type    fs.FileMode
	Perm    fs.FileMode
	Content string // file data, or link target
	ModTime int64  // files only
}

// snapshotTree lists root as sorted entries so two trees can be compared
// with a single Equal.
func snapshotTree(t *testing.T, root string) []treeEntry {
	t.Helper()

	var entries []treeEntry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return err
		}
		info, err := os.Lstat(path)
		if err != nil {
			return err
		}

		e := treeEntry{Path: filepath.ToSlash(rel), Type: info.Mode().Type()}
		switch {
		case info.Mode()&fs.ModeSymlink != 0:
			e.Content, err = os.Readlink(path)
		case info.Mode().IsRegular():
			var data []byte
			data, err = os.ReadFile(path)
			e.Content = string(data)
			e.Perm = info.Mode().Perm()
			e.ModTime = info.ModTime().UnixNano()
		}
		entries = append(entries, e)
		return err
	})
	require.NoError(t, err)

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries
}

func skipIfRoot(t *testing.T) {
	t.Helper()
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
}
