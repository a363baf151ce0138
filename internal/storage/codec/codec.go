// Package codec serializes nested structures of primitives, sequences and
// mappings for the storage backends.
package codec

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Codec converts values to and from their on-disk bytes.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Msgpack is the default codec, matching the recording file format.
type Msgpack struct{}

func (Msgpack) Name() string { return "msgpack" }

func (Msgpack) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Msgpack) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

// YAML trades size for a human-readable file.
type YAML struct{}

func (YAML) Name() string { return "yaml" }

func (YAML) Marshal(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

func (YAML) Unmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

// ByName returns the codec registered under name.
func ByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "msgpack":
		return Msgpack{}, nil
	case "yaml":
		return YAML{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}
