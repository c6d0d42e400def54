package badger

import (
	"encoding/binary"

	"github.com/poiesic/datakg/core"
)

// Key prefixes for different data types
const (
	embeddingPrefix = "embvec"
	artifactPrefix  = "artmeta"
)

// makeEmbeddingKey generates a composite key for a cached vector.
// Format: prefix:model:contentID
func makeEmbeddingKey(model string, id core.ID) []byte {
	prefix := makeEmbeddingModelPrefix(model)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// BigEndian keeps keys of one model in ID order
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeEmbeddingModelPrefix generates the key prefix shared by every vector
// of one model. Model names may contain ':' so the name is length-prefixed.
func makeEmbeddingModelPrefix(model string) []byte {
	prefix := embeddingPrefix + ":"
	buf := make([]byte, len(prefix)+2+len(model)+1)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint16(buf[offset:], uint16(len(model)))
	offset += 2
	offset += copy(buf[offset:], model)
	buf[offset] = ':'
	return buf
}

// makeArtifactKey generates a key for artifact metadata by name.
func makeArtifactKey(name string) []byte {
	return []byte(artifactPrefix + ":" + name)
}
