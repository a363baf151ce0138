// Package reference stores reference locations: points on the scene image
// the subject was asked to look at, used to calibrate gaze offline.
package reference

import (
	"context"
	"sort"
	"strconv"

	"github.com/newthinker/recstore/internal/core"
	"github.com/newthinker/recstore/internal/item"
	"github.com/newthinker/recstore/internal/storage"
	"github.com/newthinker/recstore/internal/storage/single"
)

// FileName is the storage file inside the recording's offline data folder.
const FileName = "reference_locations.msgpack"

// SchemaVersion is the tuple layout version of Location.
const SchemaVersion = 1

// Location is a reference location on a single scene frame.
type Location struct {
	ScreenPos  [2]float64
	FrameIndex int
	Timestamp  float64
}

func (Location) Version() int { return SchemaVersion }

// AsTuple encodes as ((x, y), frame_index, timestamp).
func (l Location) AsTuple() core.Tuple {
	return core.Tuple{
		[]any{l.ScreenPos[0], l.ScreenPos[1]},
		l.FrameIndex,
		l.Timestamp,
	}
}

// Class rebuilds locations from tuples.
type Class struct{}

var _ item.Class[Location] = Class{}

func (Class) Version() int { return SchemaVersion }

func (Class) FromTuple(t core.Tuple) (Location, error) {
	if err := t.ExpectLen(3); err != nil {
		return Location{}, err
	}
	pos, err := t.Floats(0, 2)
	if err != nil {
		return Location{}, err
	}
	frame, err := t.Int(1)
	if err != nil {
		return Location{}, err
	}
	ts, err := t.Float(2)
	if err != nil {
		return Location{}, err
	}
	return Location{
		ScreenPos:  [2]float64{pos[0], pos[1]},
		FrameIndex: frame,
		Timestamp:  ts,
	}, nil
}

// Storage holds at most one location per frame.
type Storage struct {
	*single.Storage[Location]
}

// NewStorage creates the storage for cfg.RecDir, subscribes it to plugin's
// cleanup and loads any previously saved locations.
func NewStorage(ctx context.Context, cfg single.Config, plugin storage.Observable) (*Storage, error) {
	cfg.FileName = FileName
	s, err := single.New[Location](cfg, Class{}, plugin, single.WithKey(func(l Location) string {
		return strconv.Itoa(l.FrameIndex)
	}))
	if err != nil {
		return nil, err
	}
	if err := s.LoadFromDisk(ctx); err != nil {
		return nil, err
	}
	return &Storage{Storage: s}, nil
}

// AtFrame returns the location on frame, if any.
func (s *Storage) AtFrame(frame int) (Location, bool) {
	for l := range s.All() {
		if l.FrameIndex == frame {
			return l, true
		}
	}
	return Location{}, false
}

// InRange returns the locations with start <= frame index < end, ordered by
// frame index.
func (s *Storage) InRange(start, end int) []Location {
	var out []Location
	for l := range s.All() {
		if l.FrameIndex >= start && l.FrameIndex < end {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FrameIndex < out[j].FrameIndex })
	return out
}
