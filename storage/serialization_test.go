package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/datakg/core"
)

func TestVectorSerialization(t *testing.T) {
	tests := []struct {
		name string
		vec  []float32
	}{
		{"empty", []float32{}},
		{"single", []float32{0.5}},
		{"mixed", []float32{1, -0.25, 3.5e-7, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalVector(MarshalVector(tt.vec))
			require.NoError(t, err)
			assert.Equal(t, tt.vec, got)
		})
	}
}

func TestUnmarshalFloats_Truncated(t *testing.T) {
	data := MarshalVector([]float32{1, 2, 3})
	_, _, err := UnmarshalFloats(data[:len(data)-2])
	assert.ErrorIs(t, err, ErrTruncatedData)
}

func TestStringsSerialization_Composes(t *testing.T) {
	ids := []string{"d1", "dataset with spaces", ""}
	vec := []float32{0.1, 0.2}

	buf := make([]byte, SizeStrings(ids)+SizeFloats(vec))
	n := MarshalStrings(ids, buf)
	n += MarshalFloats(vec, buf[n:])
	require.Equal(t, len(buf), n)

	gotIDs, m, err := UnmarshalStrings(buf)
	require.NoError(t, err)
	gotVec, k, err := UnmarshalFloats(buf[m:])
	require.NoError(t, err)
	assert.Equal(t, ids, gotIDs)
	assert.Equal(t, vec, gotVec)
	assert.Equal(t, len(buf), m+k)
}

func TestIDSerialization(t *testing.T) {
	id := core.IDFromContent("London Air Quality")
	got, err := UnmarshalID(MarshalID(id))
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestArtifactMetaSerialization(t *testing.T) {
	meta := &ArtifactMeta{
		Name:        "similarity",
		Path:        "out/similarity.bin",
		Model:       "m",
		Fingerprint: 1<<63 + 7,
		Count:       3,
		BuiltAt:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	got, err := UnmarshalArtifactMeta(MarshalArtifactMeta(meta))
	require.NoError(t, err)
	assert.Equal(t, meta, got)

	_, err = UnmarshalArtifactMeta([]byte{0xff})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
