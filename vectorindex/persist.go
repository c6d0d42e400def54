package vectorindex

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/go-crypt/x/blake2b"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/datakg/core"
	"github.com/poiesic/datakg/storage"
)

const (
	fileMagic   = "datakg-vectorindex"
	fileVersion = 1
	checksumLen = 8
)

// header prefixes every index file.
type header struct {
	Model       string
	Dim         int
	Fingerprint uint64
}

// WriteTo encodes the index followed by a checksum of everything before it.
func (ix *Index) WriteTo(w io.Writer) (int64, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	size := ord.String.Size(fileMagic) + varint.Int.Size(fileVersion) +
		ord.String.Size(ix.model) + varint.Int.Size(ix.dim) + varint.Uint64.Size(ix.fingerprint) +
		storage.SizeStrings(ix.ids) + storage.SizeFloats(ix.rows)
	buf := make([]byte, size+checksumLen)
	n := ord.String.Marshal(fileMagic, buf)
	n += varint.Int.Marshal(fileVersion, buf[n:])
	n += ord.String.Marshal(ix.model, buf[n:])
	n += varint.Int.Marshal(ix.dim, buf[n:])
	n += varint.Uint64.Marshal(ix.fingerprint, buf[n:])
	n += storage.MarshalStrings(ix.ids, buf[n:])
	n += storage.MarshalFloats(ix.rows, buf[n:])
	binary.LittleEndian.PutUint64(buf[n:], checksum(buf[:n]))

	written, err := w.Write(buf[:n+checksumLen])
	return int64(written), err
}

// Read decodes an index written by WriteTo. Any decoding or checksum
// failure is reported as ErrCorrupt.
func Read(r io.Reader) (*Index, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	ix, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return ix, nil
}

func decode(data []byte) (*Index, error) {
	if len(data) < checksumLen {
		return nil, storage.ErrTruncatedData
	}
	body := data[:len(data)-checksumLen]
	if binary.LittleEndian.Uint64(data[len(body):]) != checksum(body) {
		return nil, errors.New("checksum mismatch")
	}

	magic, n, err := ord.String.Unmarshal(body)
	if err != nil {
		return nil, err
	}
	if magic != fileMagic {
		return nil, errors.New("not a vector index")
	}
	version, k, err := varint.Int.Unmarshal(body[n:])
	if err != nil {
		return nil, err
	}
	n += k
	if version != fileVersion {
		return nil, fmt.Errorf("unsupported version %d", version)
	}

	var h header
	if h.Model, k, err = ord.String.Unmarshal(body[n:]); err != nil {
		return nil, err
	}
	n += k
	if h.Dim, k, err = varint.Int.Unmarshal(body[n:]); err != nil {
		return nil, err
	}
	n += k
	if h.Fingerprint, k, err = varint.Uint64.Unmarshal(body[n:]); err != nil {
		return nil, err
	}
	n += k

	ids, k, err := storage.UnmarshalStrings(body[n:])
	if err != nil {
		return nil, err
	}
	n += k
	rows, _, err := storage.UnmarshalFloats(body[n:])
	if err != nil {
		return nil, err
	}
	if h.Dim < 0 || len(rows) != len(ids)*h.Dim {
		return nil, fmt.Errorf("%d values for %d vectors of dimension %d", len(rows), len(ids), h.Dim)
	}
	return &Index{model: h.Model, dim: h.Dim, fingerprint: h.Fingerprint, ids: ids, rows: rows}, nil
}

func checksum(b []byte) uint64 {
	h, _ := blake2b.New(checksumLen, nil)
	h.Write(b)
	return binary.LittleEndian.Uint64(h.Sum(nil))
}

// Save writes the index to path. The previous file stays in place until the
// new one is completely written.
func (ix *Index) Save(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return storage.WriteFileAtomic(path, func(w io.Writer) error {
		_, err := ix.WriteTo(w)
		return err
	})
}

// Load reads the index stored at path. A missing file is core.ErrNotFound;
// an undecodable one is core.ErrIndex wrapping ErrCorrupt.
func Load(ctx context.Context, path string) (*Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, core.NewError(core.ErrNotFound, "load index", err)
		}
		return nil, err
	}
	defer f.Close()
	ix, err := Read(f)
	if err != nil {
		return nil, core.NewError(core.ErrIndex, "load index", err)
	}
	return ix, nil
}

// BuildFunc produces the vectors of a fresh index.
type BuildFunc func(ctx context.Context) (ids []string, vectors [][]float32, err error)

// Open returns the index at path when it was built for model with the given
// fingerprint. A missing, corrupt or stale file is rebuilt with build and
// saved back to path. The boolean reports whether a rebuild happened.
// A nil build turns those cases into errors instead.
func Open(ctx context.Context, path, model string, fingerprint uint64, build BuildFunc) (*Index, bool, error) {
	logger := slog.Default().With("component", "vectorindex")

	ix, err := Load(ctx, path)
	switch {
	case err == nil && ix.model == model && ix.fingerprint == fingerprint:
		logger.Debug("reusing vector index", "path", path, "vectors", ix.Len())
		return ix, false, nil
	case err == nil:
		err = core.NewError(core.ErrIndex, "open index",
			fmt.Errorf("%w: built for %s/%x, want %s/%x", ErrStale, ix.model, ix.fingerprint, model, fingerprint))
	case errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrIndex):
	default:
		return nil, false, err
	}
	if build == nil {
		return nil, false, err
	}
	logger.Info("rebuilding vector index", "path", path, "reason", err)

	ids, vectors, berr := build(ctx)
	if berr != nil {
		return nil, false, berr
	}
	ix = New(model)
	if berr := ix.Build(ids, vectors, fingerprint); berr != nil {
		return nil, false, berr
	}
	if berr := ix.Save(ctx, path); berr != nil {
		return nil, false, fmt.Errorf("save index: %w", berr)
	}
	return ix, true, nil
}
