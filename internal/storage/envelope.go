package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/newthinker/recstore/internal/core"
	"github.com/newthinker/recstore/internal/storage/archive"
	"github.com/newthinker/recstore/internal/storage/codec"
)

const (
	versionKey = "version"
	dataKey    = "data"
)

// Outcome classifies what a read of a storage file found.
type Outcome int

const (
	// Absent means there is no file.
	Absent Outcome = iota
	// Stale means the file declares a different version than expected.
	Stale
	// Valid means the file holds data of the expected version.
	Valid
)

func (o Outcome) String() string {
	switch o {
	case Absent:
		return "absent"
	case Stale:
		return "stale"
	case Valid:
		return "loaded"
	default:
		return "unknown"
	}
}

// Payload is the result of reading a storage file.
type Payload struct {
	Outcome Outcome
	// Found is the declared version of the file, if it had a usable one.
	// Load only sets it for a Stale file.
	Found *int
	// Data holds the item tuples in stored order. Load only sets it for a
	// Valid file.
	Data []core.Tuple
}

// Envelope writes and reads the on-disk {version, data} structure.
type Envelope struct {
	Backend archive.Storage
	Codec   codec.Codec
	Version int
	// Root is the location Backend is rooted at; only used in log messages.
	Root   string
	Logger *zap.Logger
}

// NewEnvelope creates an Envelope. A nil codec defaults to msgpack and a nil
// logger to a no-op one.
func NewEnvelope(backend archive.Storage, c codec.Codec, version int, root string, logger *zap.Logger) *Envelope {
	if c == nil {
		c = codec.Msgpack{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Envelope{
		Backend: backend,
		Codec:   c,
		Version: version,
		Root:    root,
		Logger:  logger,
	}
}

func (e *Envelope) location(path string) string {
	return filepath.Join(e.Root, filepath.FromSlash(path))
}

// Save writes data tagged with the envelope version to path, replacing any
// previous content.
func (e *Envelope) Save(ctx context.Context, path string, data []core.Tuple) error {
	if data == nil {
		data = []core.Tuple{}
	}
	raw, err := e.Codec.Marshal(map[string]any{
		versionKey: e.Version,
		dataKey:    data,
	})
	if err != nil {
		return core.WrapError(core.ErrSaveFailed, fmt.Errorf("encoding %s: %w", e.location(path), err))
	}
	if err := e.Backend.Write(ctx, path, raw); err != nil {
		return core.WrapError(core.ErrSaveFailed, fmt.Errorf("writing %s: %w", e.location(path), err))
	}
	return nil
}

// Load reads path. A missing file and a file of another version are reported
// through the Payload outcome, never as errors. Unreadable or undecodable
// content is an error.
func (e *Envelope) Load(ctx context.Context, path string) (Payload, error) {
	raw, err := e.Backend.Read(ctx, path)
	if errors.Is(err, core.ErrNotFound) {
		e.Logger.Debug("no stored data", zap.String("path", e.location(path)))
		return Payload{Outcome: Absent}, nil
	}
	if err != nil {
		return Payload{}, core.WrapError(core.ErrLoadFailed, fmt.Errorf("reading %s: %w", e.location(path), err))
	}

	doc, err := decodeDoc(e.Codec, raw)
	if err != nil {
		return Payload{}, core.WrapError(core.ErrMalformedData, fmt.Errorf("%s: %w", e.location(path), err))
	}

	found := declaredVersion(doc)
	if found == nil || *found != e.Version {
		fields := []zap.Field{
			zap.String("path", e.location(path)),
			zap.Int("expected_version", e.Version),
		}
		if found != nil {
			fields = append(fields, zap.Int("found_version", *found))
		}
		e.Logger.Warn("data is in old file format, will not load it", fields...)
		return Payload{Outcome: Stale, Found: found}, nil
	}

	data, err := tuples(doc[dataKey])
	if err != nil {
		return Payload{}, core.WrapError(core.ErrMalformedData, fmt.Errorf("%s: %w", e.location(path), err))
	}
	return Payload{Outcome: Valid, Data: data}, nil
}

// Inspect reads path like Load but returns the declared version and tuples
// whatever the outcome. Nothing is logged for a version mismatch.
func (e *Envelope) Inspect(ctx context.Context, path string) (Payload, error) {
	raw, err := e.Backend.Read(ctx, path)
	if errors.Is(err, core.ErrNotFound) {
		return Payload{Outcome: Absent}, nil
	}
	if err != nil {
		return Payload{}, core.WrapError(core.ErrLoadFailed, fmt.Errorf("reading %s: %w", e.location(path), err))
	}

	found, data, err := Decode(e.Codec, raw)
	if err != nil {
		return Payload{}, core.WrapError(core.ErrMalformedData, fmt.Errorf("%s: %w", e.location(path), err))
	}
	outcome := Stale
	if found != nil && *found == e.Version {
		outcome = Valid
	}
	return Payload{Outcome: outcome, Found: found, Data: data}, nil
}

// Remove deletes path and reports whether there was a file to delete.
func (e *Envelope) Remove(ctx context.Context, path string) (bool, error) {
	err := e.Backend.Delete(ctx, path)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("deleting %s: %w", e.location(path), err)
	}
	e.Logger.Debug("storage file deleted", zap.String("path", e.location(path)))
	return true, nil
}

// Decode parses raw storage file content into its declared version and item
// tuples. The version is nil when the file declares none usable.
func Decode(c codec.Codec, raw []byte) (*int, []core.Tuple, error) {
	doc, err := decodeDoc(c, raw)
	if err != nil {
		return nil, nil, err
	}

	version := declaredVersion(doc)
	data, err := tuples(doc[dataKey])
	if err != nil {
		return version, nil, err
	}
	return version, data, nil
}

func decodeDoc(c codec.Codec, raw []byte) (map[string]any, error) {
	var doc map[string]any
	if err := c.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}
	return doc, nil
}

// declaredVersion returns nil for a missing tag or one that is not a whole
// number, which the caller treats as stale.
func declaredVersion(doc map[string]any) *int {
	v, ok := doc[versionKey]
	if !ok || v == nil {
		return nil
	}
	n, err := core.WholeInt(v)
	if err != nil {
		return nil
	}
	return &n
}

func tuples(v any) ([]core.Tuple, error) {
	if v == nil {
		return nil, nil
	}
	rows, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("data is %T, want a sequence", v)
	}
	out := make([]core.Tuple, len(rows))
	for i, row := range rows {
		t, ok := row.([]any)
		if !ok {
			return nil, fmt.Errorf("data[%d] is %T, want a sequence", i, row)
		}
		out[i] = t
	}
	return out, nil
}
