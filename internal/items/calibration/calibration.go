// Package calibration stores offline gaze calibrations of a recording.
package calibration

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/newthinker/recstore/internal/core"
	"github.com/newthinker/recstore/internal/item"
	"github.com/newthinker/recstore/internal/storage"
	"github.com/newthinker/recstore/internal/storage/single"
)

const (
	// FileName is the storage file inside the recording's offline data folder.
	FileName = "calibrations.msgpack"
	// ExportFolder holds single exported calibrations, relative to the recording.
	ExportFolder = "calibrations"
	// ExportExt is the extension of exported calibration files.
	ExportExt = ".plcal"
	// SchemaVersion is the tuple layout version of Calibration.
	SchemaVersion = 2
)

// Status values of a calibration.
const (
	StatusNotCalculated = "Not calculated yet"
	StatusSuccessful    = "Successful"
)

// Calibration is a gaze calibration over a range of scene frames.
type Calibration struct {
	ID                   string
	Name                 string
	RecordingUUID        string
	MappingMethod        string
	FrameIndexRange      [2]int
	MinimumConfidence    float64
	Status               string
	IsOfflineCalibration bool
}

// New returns a not yet calculated offline calibration with a fresh id.
func New(name, recordingUUID, mappingMethod string, frameRange [2]int) Calibration {
	return Calibration{
		ID:                   item.NewUniqueID(),
		Name:                 name,
		RecordingUUID:        recordingUUID,
		MappingMethod:        mappingMethod,
		FrameIndexRange:      frameRange,
		MinimumConfidence:    0.8,
		Status:               StatusNotCalculated,
		IsOfflineCalibration: true,
	}
}

// FromRecording returns a calibration that was computed during recording. Its
// id derives from the recording and the frame it ended on, so importing the
// same recorded calibration twice yields the same item.
func FromRecording(recordingUUID, mappingMethod string, frame int) Calibration {
	return Calibration{
		ID:                   item.UniqueIDFromString(fmt.Sprintf("%s-%s-%d", recordingUUID, mappingMethod, frame)),
		Name:                 "Recorded Calibration",
		RecordingUUID:        recordingUUID,
		MappingMethod:        mappingMethod,
		FrameIndexRange:      [2]int{frame, frame},
		MinimumConfidence:    0.8,
		Status:               StatusSuccessful,
		IsOfflineCalibration: false,
	}
}

func (Calibration) Version() int { return SchemaVersion }

// UniqueID implements item.Keyed.
func (c Calibration) UniqueID() string { return c.ID }

func (c Calibration) AsTuple() core.Tuple {
	return core.Tuple{
		c.ID,
		c.Name,
		c.RecordingUUID,
		c.MappingMethod,
		[]any{c.FrameIndexRange[0], c.FrameIndexRange[1]},
		c.MinimumConfidence,
		c.Status,
		c.IsOfflineCalibration,
	}
}

// Class rebuilds calibrations from tuples.
type Class struct{}

var _ item.Class[Calibration] = Class{}

func (Class) Version() int { return SchemaVersion }

func (Class) FromTuple(t core.Tuple) (Calibration, error) {
	var c Calibration
	if err := t.ExpectLen(8); err != nil {
		return c, err
	}

	var err error
	strs := []*string{&c.ID, &c.Name, &c.RecordingUUID, &c.MappingMethod}
	for i, dst := range strs {
		if *dst, err = t.String(i); err != nil {
			return Calibration{}, err
		}
	}
	frames, err := t.Ints(4, 2)
	if err != nil {
		return Calibration{}, err
	}
	c.FrameIndexRange = [2]int{frames[0], frames[1]}
	if c.MinimumConfidence, err = t.Float(5); err != nil {
		return Calibration{}, err
	}
	if c.Status, err = t.String(6); err != nil {
		return Calibration{}, err
	}
	if c.IsOfflineCalibration, err = t.Bool(7); err != nil {
		return Calibration{}, err
	}
	return c, nil
}

// Storage holds the calibrations of one recording, keyed by id.
type Storage struct {
	*single.Storage[Calibration]
	recordingUUID string
	logger        *zap.Logger
}

// NewStorage creates the storage, subscribes it to plugin's cleanup and loads
// previously saved calibrations. A recording without calibrations gets a
// default one.
func NewStorage(ctx context.Context, cfg single.Config, recordingUUID string, plugin storage.Observable) (*Storage, error) {
	cfg.FileName = FileName
	s, err := single.New[Calibration](cfg, Class{}, plugin, single.ByUniqueID[Calibration]())
	if err != nil {
		return nil, err
	}
	if err := s.LoadFromDisk(ctx); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cs := &Storage{Storage: s, recordingUUID: recordingUUID, logger: logger}
	if s.Len() == 0 {
		cs.Add(New("Default Calibration", recordingUUID, "3d", [2]int{0, 0}))
	}
	return cs, nil
}

// Get returns the calibration with id.
func (s *Storage) Get(id string) (Calibration, error) {
	for c := range s.All() {
		if c.ID == id {
			return c, nil
		}
	}
	return Calibration{}, core.WrapError(core.ErrNotFound, fmt.Errorf("calibration %s", id))
}

// Duplicate adds a copy of c under a new id and returns it.
func (s *Storage) Duplicate(c Calibration) Calibration {
	dup := c
	dup.ID = item.NewUniqueID()
	dup.Name = c.Name + " Copy"
	dup.IsOfflineCalibration = true
	s.Add(dup)
	return dup
}

// ExportPath is where Export writes c, relative to the recording.
func ExportPath(c Calibration) string {
	return path.Join(ExportFolder, storage.GetValidFilename(c.Name)+"-"+c.ID+ExportExt)
}

// Export writes c on its own as a versioned file under ExportFolder, so it
// can be imported into other recordings.
func (s *Storage) Export(ctx context.Context, c Calibration) (string, error) {
	p := ExportPath(c)
	if err := s.Envelope().Save(ctx, p, []core.Tuple{c.AsTuple()}); err != nil {
		return "", err
	}
	s.logger.Info("exported calibration", zap.String("name", c.Name), zap.String("path", p))
	return p, nil
}

// Import reads an exported calibration and adds it. A missing or stale file
// is reported as core.ErrNotFound or core.ErrVersionMismatch.
func (s *Storage) Import(ctx context.Context, p string) (Calibration, error) {
	payload, err := s.Envelope().Load(ctx, p)
	if err != nil {
		return Calibration{}, err
	}
	switch payload.Outcome {
	case storage.Absent:
		return Calibration{}, core.WrapError(core.ErrNotFound, errors.New(p))
	case storage.Stale:
		return Calibration{}, core.WrapError(core.ErrVersionMismatch, errors.New(p))
	}
	if len(payload.Data) != 1 {
		return Calibration{}, core.WrapError(core.ErrMalformedData, fmt.Errorf("%s: expected 1 calibration, got %d", p, len(payload.Data)))
	}
	c, err := Class{}.FromTuple(payload.Data[0])
	if err != nil {
		return Calibration{}, err
	}
	if c.RecordingUUID != s.recordingUUID {
		s.logger.Info("imported calibration from another recording",
			zap.String("calibration", c.ID),
			zap.String("source_recording", c.RecordingUUID),
		)
	}
	s.Add(c)
	return c, nil
}

// Exported lists the exported calibration files of the recording.
func (s *Storage) Exported(ctx context.Context) ([]string, error) {
	paths, err := s.Backend().List(ctx, ExportFolder)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, p := range paths {
		if strings.HasSuffix(p, ExportExt) {
			out = append(out, p)
		}
	}
	return out, nil
}
