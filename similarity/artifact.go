package similarity

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/datakg/core"
	"github.com/poiesic/datakg/storage"
)

const (
	matrixMagic   = "datakg-similarity"
	matrixVersion = 1

	modeDense  = 0
	modeSparse = 1
)

// WriteTo encodes m: a header, the dataset ids in matrix order, then either
// the dense upper triangle or the sparse (i, j, score) list.
func (m *Matrix) WriteTo(w io.Writer) (int64, error) {
	mode := modeSparse
	if m.dense {
		mode = modeDense
	}
	size := ord.String.Size(matrixMagic) + varint.Int.Size(matrixVersion) + varint.Int.Size(mode) +
		storage.SizeStrings(m.IDs)
	if m.dense {
		size += storage.SizeFloats(m.tri)
	} else {
		size += varint.Int.Size(len(m.pairs))
		for _, p := range m.pairs {
			size += varint.Int.Size(p.I) + varint.Int.Size(p.J) + raw.Float32.Size(p.Score)
		}
	}

	buf := make([]byte, size)
	n := ord.String.Marshal(matrixMagic, buf)
	n += varint.Int.Marshal(matrixVersion, buf[n:])
	n += varint.Int.Marshal(mode, buf[n:])
	n += storage.MarshalStrings(m.IDs, buf[n:])
	if m.dense {
		storage.MarshalFloats(m.tri, buf[n:])
	} else {
		n += varint.Int.Marshal(len(m.pairs), buf[n:])
		for _, p := range m.pairs {
			n += varint.Int.Marshal(p.I, buf[n:])
			n += varint.Int.Marshal(p.J, buf[n:])
			n += raw.Float32.Marshal(p.Score, buf[n:])
		}
	}
	written, err := w.Write(buf)
	return int64(written), err
}

// ReadMatrix decodes a matrix written by WriteTo.
func ReadMatrix(r io.Reader) (*Matrix, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m, err := decodeMatrix(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadMatrix, err)
	}
	return m, nil
}

func decodeMatrix(bs []byte) (*Matrix, error) {
	magic, n, err := ord.String.Unmarshal(bs)
	if err != nil {
		return nil, err
	}
	if magic != matrixMagic {
		return nil, errors.New("not a similarity matrix")
	}
	version, k, err := varint.Int.Unmarshal(bs[n:])
	if err != nil {
		return nil, err
	}
	n += k
	if version != matrixVersion {
		return nil, fmt.Errorf("unsupported version %d", version)
	}
	mode, k, err := varint.Int.Unmarshal(bs[n:])
	if err != nil {
		return nil, err
	}
	n += k
	ids, k, err := storage.UnmarshalStrings(bs[n:])
	if err != nil {
		return nil, err
	}
	n += k
	count := len(ids)

	switch mode {
	case modeDense:
		tri, _, err := storage.UnmarshalFloats(bs[n:])
		if err != nil {
			return nil, err
		}
		if len(tri) != count*(count-1)/2 {
			return nil, fmt.Errorf("%d scores for %d datasets", len(tri), count)
		}
		return &Matrix{IDs: ids, dense: true, tri: tri}, nil
	case modeSparse:
		length, k, err := varint.Int.Unmarshal(bs[n:])
		if err != nil {
			return nil, err
		}
		n += k
		if length < 0 || length*6 > len(bs)-n {
			return nil, fmt.Errorf("%w: %d pairs", storage.ErrTruncatedData, length)
		}
		pairs := make([]Pair, length)
		for idx := range pairs {
			var p Pair
			if p.I, k, err = varint.Int.Unmarshal(bs[n:]); err != nil {
				return nil, err
			}
			n += k
			if p.J, k, err = varint.Int.Unmarshal(bs[n:]); err != nil {
				return nil, err
			}
			n += k
			if p.Score, k, err = raw.Float32.Unmarshal(bs[n:]); err != nil {
				return nil, err
			}
			n += k
			if p.I < 0 || p.I >= p.J || p.J >= count {
				return nil, fmt.Errorf("pair (%d, %d) out of range", p.I, p.J)
			}
			pairs[idx] = p
		}
		return newSparse(ids, pairs), nil
	default:
		return nil, fmt.Errorf("unknown mode %d", mode)
	}
}

// Save writes m to path, replacing any previous file atomically.
func (m *Matrix) Save(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return storage.WriteFileAtomic(path, func(w io.Writer) error {
		_, err := m.WriteTo(w)
		return err
	})
}

// Load reads the matrix stored at path. A missing file is reported as
// core.ErrNotFound.
func Load(ctx context.Context, path string) (*Matrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, core.NewError(core.ErrNotFound, "load similarity matrix", err)
		}
		return nil, err
	}
	defer f.Close()
	return ReadMatrix(bufio.NewReader(f))
}
