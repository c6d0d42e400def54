// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/datakg/core"
)

// maxElements bounds decoded slice lengths so corrupt input cannot trigger
// huge allocations.
const maxElements = 1 << 28

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	return core.ID(v), err
}

// SizeFloats returns the encoded size of a float32 slice.
func SizeFloats(v []float32) int {
	return varint.Int.Size(len(v)) + len(v)*raw.Float32.Size(0)
}

// MarshalFloats encodes v into bs and returns the bytes written.
func MarshalFloats(v []float32, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

// UnmarshalFloats decodes a float32 slice written by MarshalFloats.
func UnmarshalFloats(bs []byte) ([]float32, int, error) {
	length, n, err := unmarshalLength(bs, raw.Float32.Size(0))
	if err != nil {
		return nil, n, err
	}
	v := make([]float32, length)
	for i := range v {
		f, m, err := raw.Float32.Unmarshal(bs[n:])
		if err != nil {
			return nil, n, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
		}
		v[i] = f
		n += m
	}
	return v, n, nil
}

// SizeStrings returns the encoded size of a string slice.
func SizeStrings(v []string) int {
	size := varint.Int.Size(len(v))
	for _, s := range v {
		size += ord.String.Size(s)
	}
	return size
}

// MarshalStrings encodes v into bs and returns the bytes written.
func MarshalStrings(v []string, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	for _, s := range v {
		n += ord.String.Marshal(s, bs[n:])
	}
	return n
}

// UnmarshalStrings decodes a string slice written by MarshalStrings.
func UnmarshalStrings(bs []byte) ([]string, int, error) {
	length, n, err := unmarshalLength(bs, 1)
	if err != nil {
		return nil, n, err
	}
	v := make([]string, length)
	for i := range v {
		s, m, err := ord.String.Unmarshal(bs[n:])
		if err != nil {
			return nil, n, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
		}
		v[i] = s
		n += m
	}
	return v, n, nil
}

// unmarshalLength reads a slice length and checks that the remaining input
// can hold that many elements of at least minSize bytes.
func unmarshalLength(bs []byte, minSize int) (int, int, error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return 0, n, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if length < 0 || length > maxElements || length*minSize > len(bs)-n {
		return 0, n, fmt.Errorf("%w: length %d", ErrTruncatedData, length)
	}
	return length, n, nil
}

// MarshalVector serializes an embedding vector to bytes.
func MarshalVector(v []float32) []byte {
	buf := make([]byte, SizeFloats(v))
	MarshalFloats(v, buf)
	return buf
}

// UnmarshalVector deserializes an embedding vector from bytes.
func UnmarshalVector(data []byte) ([]float32, error) {
	v, _, err := UnmarshalFloats(data)
	return v, err
}

// MarshalArtifactMeta serializes an ArtifactMeta to bytes.
func MarshalArtifactMeta(m *ArtifactMeta) []byte {
	builtAt := m.BuiltAt.UnixMicro()
	size := ord.String.Size(m.Name) + ord.String.Size(m.Path) + ord.String.Size(m.Model) +
		varint.Uint64.Size(m.Fingerprint) + varint.Int.Size(m.Count) + varint.Int64.Size(builtAt)
	buf := make([]byte, size)
	n := ord.String.Marshal(m.Name, buf)
	n += ord.String.Marshal(m.Path, buf[n:])
	n += ord.String.Marshal(m.Model, buf[n:])
	n += varint.Uint64.Marshal(m.Fingerprint, buf[n:])
	n += varint.Int.Marshal(m.Count, buf[n:])
	varint.Int64.Marshal(builtAt, buf[n:])
	return buf
}

// UnmarshalArtifactMeta deserializes an ArtifactMeta from bytes.
func UnmarshalArtifactMeta(data []byte) (*ArtifactMeta, error) {
	var (
		m   ArtifactMeta
		n   int
		err error
	)
	read := func(fn func(bs []byte) (int, error)) {
		if err != nil {
			return
		}
		var k int
		k, err = fn(data[n:])
		n += k
	}
	readString := func(dst *string) func([]byte) (int, error) {
		return func(bs []byte) (int, error) {
			v, k, err := ord.String.Unmarshal(bs)
			*dst = v
			return k, err
		}
	}
	read(readString(&m.Name))
	read(readString(&m.Path))
	read(readString(&m.Model))
	read(func(bs []byte) (int, error) {
		v, k, err := varint.Uint64.Unmarshal(bs)
		m.Fingerprint = v
		return k, err
	})
	read(func(bs []byte) (int, error) {
		v, k, err := varint.Int.Unmarshal(bs)
		m.Count = v
		return k, err
	})
	read(func(bs []byte) (int, error) {
		v, k, err := varint.Int64.Unmarshal(bs)
		m.BuiltAt = time.UnixMicro(v).UTC()
		return k, err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &m, nil
}
