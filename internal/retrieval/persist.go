package retrieval

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
)

const (
	IndexFile    = "songs.index"
	MetadataFile = "songs.meta.json"

	formatVersion = 1
	headerSize    = 4 + 4 + 4 + 4 + 1
)

var indexMagic = [4]byte{'S', 'G', 'V', 'X'}

// metadata is the JSON companion of the vector file. It is written last and
// pins the vector file by count and checksum.
type metadata struct {
	Version       int       `json:"version"`
	BuildID       string    `json:"build_id"`
	Model         string    `json:"model"`
	Metric        string    `json:"metric"`
	Dimension     int       `json:"dimension"`
	Count         int       `json:"count"`
	IndexChecksum string    `json:"index_checksum"`
	BuiltAt       time.Time `json:"built_at"`
	Records       []Record  `json:"records"`
}

// Expect is what the running process requires of a persisted index.
// Zero fields are not checked.
type Expect struct {
	Dimension int
	Metric    Metric
	Model     string
}

// Save writes the index and its metadata into dir. Both files are staged as
// temporaries and renamed into place, vector file first; a reader never
// accepts a vector file whose checksum the metadata does not vouch for.
func Save(ix *Index, dir string) error {
	if ix == nil {
		return errors.New("save: nil index")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	idxTmp, sum, err := writeTemp(dir, IndexFile, func(w io.Writer) error {
		return writeVectors(w, ix)
	})
	if err != nil {
		return fmt.Errorf("write vectors: %w", err)
	}
	defer os.Remove(idxTmp)

	meta := metadata{
		Version:       formatVersion,
		BuildID:       ix.info.BuildID,
		Model:         ix.info.Model,
		Metric:        ix.metric.String(),
		Dimension:     ix.dim,
		Count:         ix.Len(),
		IndexChecksum: fmt.Sprintf("%016x", sum),
		BuiltAt:       ix.info.BuiltAt,
		Records:       ix.records,
	}
	metaTmp, _, err := writeTemp(dir, MetadataFile, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	})
	if err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	defer os.Remove(metaTmp)

	if err := os.Rename(idxTmp, filepath.Join(dir, IndexFile)); err != nil {
		return fmt.Errorf("install vectors: %w", err)
	}
	if err := os.Rename(metaTmp, filepath.Join(dir, MetadataFile)); err != nil {
		return fmt.Errorf("install metadata: %w", err)
	}
	syncDir(dir)
	return nil
}

// Load reads the artifact pair from dir and verifies it against itself and want.
// Any disagreement is reported as ErrStoreCorrupt.
func Load(dir string, want Expect) (*Index, error) {
	raw, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var meta metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, corrupt("decode metadata: %v", err)
	}
	if meta.Version != formatVersion {
		return nil, corrupt("metadata format version %d, want %d", meta.Version, formatVersion)
	}
	if meta.Count != len(meta.Records) {
		return nil, corrupt("metadata declares %d records, holds %d", meta.Count, len(meta.Records))
	}
	metric, err := ParseMetric(meta.Metric)
	if err != nil {
		return nil, corrupt("%v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, IndexFile))
	if err != nil {
		return nil, fmt.Errorf("read vectors: %w", err)
	}
	if got := fmt.Sprintf("%016x", xxhash.Sum64(data)); got != meta.IndexChecksum {
		return nil, corrupt("vector file checksum %s, metadata expects %s", got, meta.IndexChecksum)
	}
	hdr, body, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	switch {
	case hdr.count != meta.Count:
		return nil, corrupt("vector file holds %d vectors, metadata %d records", hdr.count, meta.Count)
	case hdr.dim != meta.Dimension:
		return nil, corrupt("vector file dimension %d, metadata %d", hdr.dim, meta.Dimension)
	case hdr.metric != metric:
		return nil, corrupt("vector file metric %s, metadata %s", hdr.metric, metric)
	case want.Dimension != 0 && hdr.dim != want.Dimension:
		return nil, corrupt("index dimension %d does not match embedder dimension %d", hdr.dim, want.Dimension)
	case want.Metric != 0 && hdr.metric != want.Metric:
		return nil, corrupt("index metric %s does not match configured metric %s", hdr.metric, want.Metric)
	case want.Model != "" && meta.Model != want.Model:
		return nil, corrupt("index built with model %q, embedder is %q", meta.Model, want.Model)
	}

	vectors, err := readVectors(body, hdr.count*hdr.dim)
	if err != nil {
		return nil, err
	}
	return &Index{
		dim:     hdr.dim,
		metric:  metric,
		vectors: vectors,
		records: meta.Records,
		info: Info{
			BuildID: meta.BuildID,
			Model:   meta.Model,
			BuiltAt: meta.BuiltAt,
		},
	}, nil
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStoreCorrupt, fmt.Sprintf(format, args...))
}

// writeTemp streams fill into a synced temp file next to name and returns its
// path and the xxhash of everything written.
func writeTemp(dir, name string, fill func(io.Writer) error) (string, uint64, error) {
	f, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return "", 0, err
	}
	h := xxhash.New()
	if err := fill(io.MultiWriter(f, h)); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", 0, err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", 0, err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", 0, err
	}
	return f.Name(), h.Sum64(), nil
}

// syncDir flushes the directory entry so the renames survive a crash. Not all
// platforms support it; failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

type header struct {
	dim    int
	count  int
	metric Metric
}

func writeVectors(w io.Writer, ix *Index) error {
	hdr := make([]byte, headerSize)
	copy(hdr[0:4], indexMagic[:])
	binary.LittleEndian.PutUint32(hdr[4:8], formatVersion)
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(ix.dim))
	binary.LittleEndian.PutUint32(hdr[12:16], uint32(ix.Len()))
	hdr[16] = byte(ix.metric)
	if _, err := w.Write(hdr); err != nil {
		return err
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	buf := make([]byte, 4*ix.dim)
	for i := 0; i < ix.Len(); i++ {
		for j, v := range ix.vector(i) {
			binary.LittleEndian.PutUint32(buf[j*4:], math.Float32bits(v))
		}
		if _, err := enc.Write(buf); err != nil {
			enc.Close()
			return err
		}
	}
	return enc.Close()
}

func readHeader(data []byte) (header, []byte, error) {
	if len(data) < headerSize {
		return header{}, nil, corrupt("vector file truncated (%d bytes)", len(data))
	}
	if !bytes.Equal(data[0:4], indexMagic[:]) {
		return header{}, nil, corrupt("vector file has bad magic %q", data[0:4])
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != formatVersion {
		return header{}, nil, corrupt("vector file format version %d, want %d", v, formatVersion)
	}
	hdr := header{
		dim:    int(binary.LittleEndian.Uint32(data[8:12])),
		count:  int(binary.LittleEndian.Uint32(data[12:16])),
		metric: Metric(data[16]),
	}
	if !hdr.metric.valid() {
		return header{}, nil, corrupt("vector file has unknown metric %d", data[16])
	}
	return hdr, data[headerSize:], nil
}

func readVectors(body []byte, values int) ([]float32, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(body, make([]byte, 0, values*4))
	if err != nil {
		return nil, corrupt("decompress vectors: %v", err)
	}
	if len(raw) != values*4 {
		return nil, corrupt("vector body has %d bytes, want %d", len(raw), values*4)
	}
	out := make([]float32, values)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out, nil
}
