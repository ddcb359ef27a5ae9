package dem

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// A cache artifact (.raw) is a fixed little-endian header followed by
// float32 samples, row-major, northernmost row first:
//
//	magic "DEMC" | version u32 | cols u32 | rows u32 | geotransform 6*f64 | nodata f64
const (
	artifactMagic   = "DEMC"
	artifactVersion = 1
	headerSize      = 4 + 4 + 4 + 4 + 6*8 + 8
	sampleSize      = 4
)

// ErrNotArtifact is returned when a file doesn't start with a valid header.
var ErrNotArtifact = errors.New("not a DEM cache artifact")

// Header describes an artifact's grid.
type Header struct {
	Cols      int          `json:"cols"`
	Rows      int          `json:"rows"`
	Transform Geotransform `json:"geotransform"`
	NoData    float64      `json:"nodata"`
}

// Extent returns west, south, east, north edges.
func (h Header) Extent() (west, south, east, north float64) {
	g := Grid{Cols: h.Cols, Rows: h.Rows, Transform: h.Transform}
	return g.Extent()
}

func (h Header) marshal() []byte {
	b := make([]byte, headerSize)
	copy(b, artifactMagic)
	binary.LittleEndian.PutUint32(b[4:], artifactVersion)
	binary.LittleEndian.PutUint32(b[8:], uint32(h.Cols))
	binary.LittleEndian.PutUint32(b[12:], uint32(h.Rows))
	for i, v := range h.Transform {
		binary.LittleEndian.PutUint64(b[16+8*i:], math.Float64bits(v))
	}
	binary.LittleEndian.PutUint64(b[64:], math.Float64bits(h.NoData))
	return b
}

func unmarshalHeader(b []byte) (Header, error) {
	if len(b) < headerSize || string(b[:4]) != artifactMagic {
		return Header{}, ErrNotArtifact
	}
	if v := binary.LittleEndian.Uint32(b[4:]); v != artifactVersion {
		return Header{}, fmt.Errorf("%w: unsupported version %d", ErrNotArtifact, v)
	}

	h := Header{
		Cols:   int(binary.LittleEndian.Uint32(b[8:])),
		Rows:   int(binary.LittleEndian.Uint32(b[12:])),
		NoData: math.Float64frombits(binary.LittleEndian.Uint64(b[64:])),
	}
	for i := range h.Transform {
		h.Transform[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[16+8*i:]))
	}
	return h, nil
}

// ArtifactWriter streams rows into a temp file next to the destination and
// publishes it with a rename, so readers never see a partial artifact.
type ArtifactWriter struct {
	header Header
	path   string
	tmp    *os.File
	buf    *bufio.Writer
	row    []byte
	rows   int
}

// CreateArtifact starts writing an artifact that will end up at path.
func CreateArtifact(path string, h Header) (*ArtifactWriter, error) {
	if h.Cols <= 0 || h.Rows <= 0 {
		return nil, fmt.Errorf("invalid artifact size %dx%d", h.Cols, h.Rows)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, err
	}

	w := &ArtifactWriter{
		header: h,
		path:   path,
		tmp:    tmp,
		buf:    bufio.NewWriterSize(tmp, 1<<20),
		row:    make([]byte, h.Cols*sampleSize),
	}
	if _, err := w.buf.Write(h.marshal()); err != nil {
		w.Abort()
		return nil, err
	}
	return w, nil
}

// WriteRow appends the next row, north to south.
func (w *ArtifactWriter) WriteRow(values []float32) error {
	if len(values) != w.header.Cols {
		return fmt.Errorf("row has %d values, want %d", len(values), w.header.Cols)
	}
	if w.rows >= w.header.Rows {
		return fmt.Errorf("artifact already has %d rows", w.rows)
	}

	for i, v := range values {
		binary.LittleEndian.PutUint32(w.row[i*sampleSize:], math.Float32bits(v))
	}
	if _, err := w.buf.Write(w.row); err != nil {
		return err
	}
	w.rows++
	return nil
}

// Commit flushes, syncs and renames the artifact into place.
func (w *ArtifactWriter) Commit() error {
	if w.rows != w.header.Rows {
		w.Abort()
		return fmt.Errorf("artifact has %d rows, want %d", w.rows, w.header.Rows)
	}

	err := w.buf.Flush()
	if err == nil {
		err = w.tmp.Sync()
	}
	if cerr := w.tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(w.tmp.Name(), w.path)
	}
	if err != nil {
		os.Remove(w.tmp.Name())
	}
	return err
}

// Abort discards the temp file.
func (w *ArtifactWriter) Abort() {
	w.tmp.Close()
	os.Remove(w.tmp.Name())
}

// WriteArtifact writes a whole grid as an artifact.
func WriteArtifact(path string, g *Grid) error {
	if err := g.validate(); err != nil {
		return err
	}

	w, err := CreateArtifact(path, Header{Cols: g.Cols, Rows: g.Rows, Transform: g.Transform, NoData: g.NoData})
	if err != nil {
		return err
	}
	for y := 0; y < g.Rows; y++ {
		if err := w.WriteRow(g.Data[y*g.Cols : (y+1)*g.Cols]); err != nil {
			w.Abort()
			return err
		}
	}
	return w.Commit()
}

// Artifact is an open artifact supporting random 1x1 reads.
type Artifact struct {
	file   *os.File
	header Header
}

// OpenArtifact opens and validates an artifact.
func OpenArtifact(path string) (*Artifact, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	b := make([]byte, headerSize)
	if _, err := io.ReadFull(file, b); err != nil {
		file.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrNotArtifact)
	}
	h, err := unmarshalHeader(b)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if want := int64(headerSize) + int64(h.Cols)*int64(h.Rows)*sampleSize; stat.Size() != want {
		file.Close()
		return nil, fmt.Errorf("%s: size %d, want %d: %w", path, stat.Size(), want, ErrNotArtifact)
	}

	return &Artifact{file: file, header: h}, nil
}

// Header returns the artifact's grid description.
func (a *Artifact) Header() Header { return a.header }

// ReadCell reads the single sample at (x, y).
func (a *Artifact) ReadCell(x, y int) (float32, error) {
	if x < 0 || y < 0 || x >= a.header.Cols || y >= a.header.Rows {
		return 0, fmt.Errorf("cell (%d, %d) outside %dx%d grid", x, y, a.header.Cols, a.header.Rows)
	}

	var b [sampleSize]byte
	off := int64(headerSize) + (int64(y)*int64(a.header.Cols)+int64(x))*sampleSize
	if _, err := a.file.ReadAt(b[:], off); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b[:])), nil
}

// Grid loads the whole artifact into memory.
func (a *Artifact) Grid() (*Grid, error) {
	h := a.header
	g := &Grid{Cols: h.Cols, Rows: h.Rows, Transform: h.Transform, NoData: h.NoData, Data: make([]float32, h.Cols*h.Rows)}

	r := bufio.NewReaderSize(io.NewSectionReader(a.file, headerSize, int64(len(g.Data))*sampleSize), 1<<20)
	if err := binary.Read(r, binary.LittleEndian, g.Data); err != nil {
		return nil, err
	}
	return g, nil
}

// Close releases the file handle.
func (a *Artifact) Close() error {
	return a.file.Close()
}

// ReadArtifact loads a whole artifact from path.
func ReadArtifact(path string) (*Grid, error) {
	a, err := OpenArtifact(path)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return a.Grid()
}
