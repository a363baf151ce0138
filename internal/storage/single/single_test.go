package single

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/newthinker/recstore/internal/core"
	"github.com/newthinker/recstore/internal/metrics"
	"github.com/newthinker/recstore/internal/plugin"
	"github.com/newthinker/recstore/internal/storage/codec"
)

type marker struct {
	Label string
	Frame int
}

func (marker) Version() int { return 2 }

func (m marker) AsTuple() core.Tuple { return core.Tuple{m.Label, m.Frame} }

type markerClass struct{ version int }

func (c markerClass) Version() int { return c.version }

func (markerClass) FromTuple(t core.Tuple) (marker, error) {
	if err := t.ExpectLen(2); err != nil {
		return marker{}, err
	}
	label, err := t.String(0)
	if err != nil {
		return marker{}, err
	}
	frame, err := t.Int(1)
	if err != nil {
		return marker{}, err
	}
	return marker{Label: label, Frame: frame}, nil
}

var current = markerClass{version: 2}

func newStorage(t *testing.T, cfg Config, opts ...Option[marker]) *Storage[marker] {
	t.Helper()
	if cfg.FileName == "" {
		cfg.FileName = "markers.msgpack"
	}
	s, err := New[marker](cfg, current, nil, opts...)
	require.NoError(t, err)
	return s
}

func TestNew_RequiresFields(t *testing.T) {
	_, err := New[marker](Config{FileName: "f"}, current, nil)
	assert.True(t, errors.Is(err, core.ErrConfigMissing))

	_, err = New[marker](Config{RecDir: "/rec"}, current, nil)
	assert.True(t, errors.Is(err, core.ErrConfigMissing))

	_, err = New[marker](Config{RecDir: "/rec", FileName: "f"}, nil, nil)
	assert.True(t, errors.Is(err, core.ErrConfigMissing))
}

func TestStorage_Paths(t *testing.T) {
	s := newStorage(t, Config{RecDir: "/data/rec-001"})

	assert.Equal(t, filepath.Join("/data/rec-001", "offline_data"), s.FolderPath())
	assert.Equal(t, filepath.Join("/data/rec-001", "offline_data", "markers.msgpack"), s.FilePath())
	assert.Equal(t, "/data/rec-001", s.RecDir())
}

func TestStorage_AddDeleteIterate(t *testing.T) {
	s := newStorage(t, Config{RecDir: t.TempDir()})
	a, b, c := marker{"a", 1}, marker{"b", 2}, marker{"c", 3}

	s.Add(a)
	s.Add(b)
	s.Add(c)
	assert.Equal(t, []marker{a, b, c}, s.Items())
	assert.Equal(t, []marker{a, b, c}, slices.Collect(s.All()))
	assert.Equal(t, 3, s.Len())

	s.Delete(b)
	assert.Equal(t, []marker{a, c}, s.Items())

	// absent item
	s.Delete(marker{"zzz", 9})
	assert.Equal(t, []marker{a, c}, s.Items())
}

func TestStorage_UnkeyedAllowsDuplicates(t *testing.T) {
	s := newStorage(t, Config{RecDir: t.TempDir()})
	a := marker{"a", 1}

	s.Add(a)
	s.Add(a)
	assert.Equal(t, 2, s.Len())

	s.Delete(a)
	assert.Equal(t, []marker{a}, s.Items())
}

func TestStorage_KeyedReplacesInPlace(t *testing.T) {
	byFrame := WithKey(func(m marker) string { return string(rune('0' + m.Frame)) })
	s := newStorage(t, Config{RecDir: t.TempDir()}, byFrame)

	s.Add(marker{"a", 1})
	s.Add(marker{"b", 2})
	s.Add(marker{"a2", 1})
	assert.Equal(t, []marker{{"a2", 1}, {"b", 2}}, s.Items())

	s.Delete(marker{"whatever", 1})
	assert.Equal(t, []marker{{"b", 2}}, s.Items())
}

func TestStorage_ItemsIsSnapshot(t *testing.T) {
	s := newStorage(t, Config{RecDir: t.TempDir()})
	s.Add(marker{"a", 1})

	items := s.Items()
	items[0].Label = "mutated"

	assert.Equal(t, "a", s.Items()[0].Label)
}

func TestStorage_SaveLoadRoundTrip(t *testing.T) {
	for _, c := range []codec.Codec{codec.Msgpack{}, codec.YAML{}} {
		t.Run(c.Name(), func(t *testing.T) {
			dir := t.TempDir()
			ctx := context.Background()
			a, b, cc := marker{"a", 1}, marker{"b", 200}, marker{"c", -3}

			first := newStorage(t, Config{RecDir: dir, Codec: c})
			first.Add(a)
			first.Add(b)
			first.Add(cc)
			require.NoError(t, first.SaveToDisk(ctx))

			_, err := os.Stat(filepath.Join(dir, "offline_data", "markers.msgpack"))
			require.NoError(t, err)

			second := newStorage(t, Config{RecDir: dir, Codec: c})
			assert.Zero(t, second.Len(), "constructor must not load")
			require.NoError(t, second.LoadFromDisk(ctx))
			assert.Equal(t, []marker{a, b, cc}, second.Items())
		})
	}
}

func TestStorage_SaveIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	s := newStorage(t, Config{RecDir: dir})
	s.Add(marker{"a", 1})
	s.Add(marker{"b", 2})

	require.NoError(t, s.SaveToDisk(ctx))
	first, err := os.ReadFile(s.FilePath())
	require.NoError(t, err)

	require.NoError(t, s.SaveToDisk(ctx))
	second, err := os.ReadFile(s.FilePath())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestStorage_SaveEmptyOverwrites(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := newStorage(t, Config{RecDir: dir})
	s.Add(marker{"a", 1})
	require.NoError(t, s.SaveToDisk(ctx))

	s.Delete(marker{"a", 1})
	require.NoError(t, s.SaveToDisk(ctx))

	reloaded := newStorage(t, Config{RecDir: dir})
	require.NoError(t, reloaded.LoadFromDisk(ctx))
	assert.Zero(t, reloaded.Len())
}

func TestStorage_LoadMissingFile(t *testing.T) {
	s := newStorage(t, Config{RecDir: filepath.Join(t.TempDir(), "never-created")})

	require.NoError(t, s.LoadFromDisk(context.Background()))
	assert.Empty(t, s.Items())
}

func TestStorage_LoadStaleVersion(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	old, err := New[marker](Config{RecDir: dir, FileName: "markers.msgpack"}, markerClass{version: 1}, nil)
	require.NoError(t, err)
	old.Add(marker{"old", 1})
	require.NoError(t, old.SaveToDisk(ctx))

	obsCore, logs := observer.New(zapcore.WarnLevel)
	reg := metrics.NewRegistry()
	s := newStorage(t, Config{RecDir: dir, Logger: zap.New(obsCore), Metrics: reg})

	require.NoError(t, s.LoadFromDisk(ctx))
	assert.Empty(t, s.Items())

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, s.FilePath(), logs.All()[0].ContextMap()["path"])
	assert.Equal(t, 1.0, counterValue(t, reg, "recstore_loads_total", "outcome", "stale"))
}

func TestStorage_LoadMalformedTupleAddsNothing(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := newStorage(t, Config{RecDir: dir})
	require.NoError(t, s.Envelope().Save(ctx, "offline_data/markers.msgpack", []core.Tuple{
		{"ok", 1},
		{"broken"},
	}))

	err := s.LoadFromDisk(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrMalformedData))
	assert.Empty(t, s.Items())
}

func TestStorage_SaveFailureSurfaces(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "offline_data")
	require.NoError(t, os.WriteFile(blocker, []byte("not a folder"), 0644))

	s := newStorage(t, Config{RecDir: dir})
	s.Add(marker{"a", 1})

	err := s.SaveToDisk(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrSaveFailed))
}

func TestStorage_CleanupTriggersExactlyOneSave(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	reg := metrics.NewRegistry()
	host := plugin.New("markers", nil)

	s, err := New[marker](Config{RecDir: dir, FileName: "markers.msgpack", Metrics: reg}, current, host)
	require.NoError(t, err)
	s.Add(marker{"a", 1})

	_, err = os.Stat(s.FilePath())
	require.True(t, os.IsNotExist(err), "nothing is written before cleanup")

	require.NoError(t, host.Cleanup(ctx))

	assert.Equal(t, 1.0, counterValue(t, reg, "recstore_saves_total", "status", "ok"))

	reloaded := newStorage(t, Config{RecDir: dir})
	require.NoError(t, reloaded.LoadFromDisk(ctx))
	assert.Equal(t, []marker{{"a", 1}}, reloaded.Items())
}

func TestStorage_Purge(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	s := newStorage(t, Config{RecDir: dir})
	s.Add(marker{"a", 1})
	require.NoError(t, s.SaveToDisk(ctx))

	require.NoError(t, s.Purge(ctx))
	_, err := os.Stat(s.FilePath())
	assert.True(t, os.IsNotExist(err))

	// already gone
	require.NoError(t, s.Purge(ctx))
}

func counterValue(t *testing.T, reg *metrics.Registry, name, label, value string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

type tagged struct {
	ID    string
	Label string
}

func (tagged) Version() int { return 1 }

func (t tagged) AsTuple() core.Tuple { return core.Tuple{t.ID, t.Label} }

func (t tagged) UniqueID() string { return t.ID }

type taggedClass struct{}

func (taggedClass) Version() int { return 1 }

func (taggedClass) FromTuple(t core.Tuple) (tagged, error) {
	id, err := t.String(0)
	if err != nil {
		return tagged{}, err
	}
	label, err := t.String(1)
	if err != nil {
		return tagged{}, err
	}
	return tagged{ID: id, Label: label}, nil
}

func TestStorage_ByUniqueID(t *testing.T) {
	s, err := New[tagged](Config{RecDir: t.TempDir(), FileName: "tagged.msgpack"}, taggedClass{}, nil, ByUniqueID[tagged]())
	require.NoError(t, err)

	s.Add(tagged{"1", "first"})
	s.Add(tagged{"2", "second"})
	s.Add(tagged{"1", "renamed"})

	assert.Equal(t, []tagged{{"1", "renamed"}, {"2", "second"}}, s.Items())
}
