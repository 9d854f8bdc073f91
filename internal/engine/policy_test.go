package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	src := FileMeta{Exists: true, ModTime: base, Size: 100}
	older := FileMeta{Exists: true, ModTime: base.Add(-time.Hour), Size: 100}
	newer := FileMeta{Exists: true, ModTime: base.Add(time.Hour), Size: 100}
	smaller := FileMeta{Exists: true, ModTime: base, Size: 50}
	larger := FileMeta{Exists: true, ModTime: base, Size: 200}
	same := FileMeta{Exists: true, ModTime: base, Size: 100}
	dir := FileMeta{Exists: true, IsDir: true, ModTime: base.Add(-time.Hour)}
	link := FileMeta{Exists: true, IsLink: true, ModTime: base.Add(-time.Hour), Size: 8}

	skip := Options{Skip: true}
	ifNewer := Options{Skip: true, CopyIfNewer: true}
	ifLarger := Options{Skip: true, CopyIfLarger: true}
	both := Options{Skip: true, CopyIfNewer: true, CopyIfLarger: true}

	tests := []struct {
		name string
		dst  FileMeta
		opts Options
		want Decision
	}{
		{"missing destination", FileMeta{}, Options{}, Copy},
		{"missing destination with skip", FileMeta{}, skip, Copy},
		{"existing, no policy", same, Options{}, Conflict},
		{"existing, overwrite", same, Options{Overwrite: true}, Copy},
		{"existing, skip", older, skip, Skip},
		{"newer source", older, ifNewer, Copy},
		{"equal mtime", same, ifNewer, Skip},
		{"older source", newer, ifNewer, Skip},
		{"larger source", smaller, ifLarger, Copy},
		{"equal size", same, ifLarger, Skip},
		{"smaller source", larger, ifLarger, Skip},
		{"larger only ignores mtime", older, ifLarger, Skip},
		{"both, newer only", older, both, Copy},
		{"both, larger only", FileMeta{Exists: true, ModTime: newer.ModTime, Size: 50}, both, Copy},
		{"both, neither", FileMeta{Exists: true, ModTime: newer.ModTime, Size: 200}, both, Skip},
		{"destination directory, overwrite", dir, Options{Overwrite: true}, Conflict},
		{"destination directory, no policy", dir, Options{}, Conflict},
		{"destination directory, skip", dir, skip, Skip},
		{"destination directory, newer", dir, ifNewer, Skip},
		{"destination directory, larger", dir, ifLarger, Skip},
		{"destination link, overwrite", link, Options{Overwrite: true}, Copy},
		{"destination link, no policy", link, Options{}, Conflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Evaluate(src, tt.dst, tt.opts))
		})
	}
}

func TestMetaFromInfo_Nil(t *testing.T) {
	t.Parallel()
	assert.False(t, metaFromInfo(nil).Exists)
}

func TestDecisionString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "copy", Copy.String())
	assert.Equal(t, "skip", Skip.String())
	assert.Equal(t, "conflict", Conflict.String())
	assert.Equal(t, "unknown", Decision(42).String())
}
