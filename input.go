package fyaml

import (
	"io"
	"os"
	"strings"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// inputKind identifies the backing source of an Input.
type inputKind int

const (
	inputMemory inputKind = iota // borrowed byte slice
	inputAlloc                   // owned byte slice
	inputFile                    // memory-mapped file
	inputStream                  // io.Reader with a growable buffer
	inputCallback                // pull callback with a growable buffer
)

// lbMode selects the set of codepoints recognized as line breaks.
type lbMode int

const (
	lbCRNL    lbMode = iota // LF and CR+LF only (YAML 1.2, JSON)
	lbCRNLNLP               // additionally NEL, LS, PS (YAML 1.1)
)

const (
	defaultChunk = 4096
	chopFactor   = 16
)

// Input owns one source of bytes and the buffer state over it. Inputs are
// reference-counted: tokens and atoms keep the input (and for mapped files
// the mapping) alive for as long as they need its bytes.
type Input struct {
	kind inputKind
	path string

	buf  []byte // bytes [base, base+len(buf)) of the stream
	base int    // stream offset of buf[0]
	eof  bool

	r  io.Reader
	cb func([]byte) (int, error)
	mm mmap.MMap
	f  *os.File

	generation atomic.Int64
	refs       atomic.Int64

	// Modes propagated into every token scanned from this input.
	json bool
	lb   lbMode

	chunk int
}

// InputMemory returns an input over a borrowed byte slice.
func InputMemory(b []byte) *Input {
	in := &Input{kind: inputMemory, buf: b, eof: true, chunk: defaultChunk}
	in.refs.Store(1)
	return in
}

// InputString returns an input over the bytes of s.
func InputString(s string) *Input {
	in := &Input{kind: inputAlloc, buf: []byte(s), eof: true, chunk: defaultChunk}
	in.refs.Store(1)
	return in
}

// InputFile returns an input backed by a memory-mapped file. When mapping
// fails (empty files, filesystems without mmap support) the file is read
// into memory instead.
func InputFile(path string) (*Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		defer f.Close()
		b, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil, errors.Wrapf(rerr, "reading %s", path)
		}
		in := InputMemory(b)
		in.kind = inputAlloc
		in.path = path
		return in, nil
	}
	in := &Input{kind: inputFile, path: path, buf: m, eof: true, mm: m, f: f, chunk: defaultChunk}
	in.refs.Store(1)
	return in, nil
}

// InputReader returns a streaming input over r with a growable buffer.
func InputReader(r io.Reader) *Input {
	in := &Input{kind: inputStream, r: r, chunk: defaultChunk}
	in.refs.Store(1)
	return in
}

// InputCallback returns a streaming input that pulls bytes through cb,
// which fills the supplied slice and returns the byte count, io.EOF at
// end of stream.
func InputCallback(cb func([]byte) (int, error)) *Input {
	in := &Input{kind: inputCallback, cb: cb, chunk: defaultChunk}
	in.refs.Store(1)
	return in
}

// Generation returns the relocation counter. It increments whenever the
// buffer moves in memory, so atoms holding pre-relocation state know to
// re-resolve.
func (in *Input) Generation() int64 { return in.generation.Load() }

func (in *Input) ref() { in.refs.Inc() }

func (in *Input) unref() {
	if in.refs.Dec() > 0 {
		return
	}
	if in.mm != nil {
		_ = in.mm.Unmap()
		in.mm = nil
	}
	if in.f != nil {
		_ = in.f.Close()
		in.f = nil
	}
}

// Close releases the creator's reference. The underlying mapping stays
// alive until the last token referencing it is dropped.
func (in *Input) Close() { in.unref() }

// streaming reports whether the input buffer can grow and relocate.
func (in *Input) streaming() bool {
	return in.kind == inputStream || in.kind == inputCallback
}

// ensure guarantees that bytes [off, off+n) are buffered, or that EOF was
// reached before them. It reports how many bytes are actually available at
// off.
func (in *Input) ensure(off, n int) (int, error) {
	for in.base+len(in.buf) < off+n && !in.eof {
		if err := in.fill(); err != nil {
			return 0, err
		}
	}
	avail := in.base + len(in.buf) - off
	if avail < 0 {
		avail = 0
	}
	return avail, nil
}

// fill reads one more chunk from a streaming source.
func (in *Input) fill() error {
	if !in.streaming() {
		in.eof = true
		return nil
	}
	oldCap := cap(in.buf)
	need := len(in.buf) + in.chunk
	if cap(in.buf) < need {
		nb := make([]byte, len(in.buf), need*2)
		copy(nb, in.buf)
		in.buf = nb
	}
	if cap(in.buf) != oldCap {
		in.generation.Inc()
	}

	dst := in.buf[len(in.buf) : len(in.buf)+in.chunk]
	var (
		n   int
		err error
	)
	if in.kind == inputCallback {
		n, err = in.cb(dst)
	} else {
		n, err = in.r.Read(dst)
	}
	in.buf = in.buf[:len(in.buf)+n]
	if err == io.EOF {
		in.eof = true
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "reading input")
	}
	if n == 0 {
		in.eof = true
	}
	return nil
}

// bytesAt returns the buffered bytes for the absolute range [start, end).
// The range must lie inside the buffer; callers hold marks that were
// produced while this input was current, which guarantees it.
func (in *Input) bytesAt(start, end int) []byte {
	return in.buf[start-in.base : end-in.base]
}

// byteAt returns the byte at absolute offset off, which must be buffered.
func (in *Input) byteAt(off int) byte {
	return in.buf[off-in.base]
}

// spawnTail relocates the unread tail starting at off into a fresh input
// with a bumped generation. The old input keeps its buffer untouched so
// outstanding atoms stay valid; the reader switches to the new input.
func (in *Input) spawnTail(off int) *Input {
	tail := make([]byte, in.base+len(in.buf)-off)
	copy(tail, in.buf[off-in.base:])
	nin := &Input{
		kind:  in.kind,
		path:  in.path,
		buf:   tail,
		base:  off,
		eof:   in.eof,
		r:     in.r,
		cb:    in.cb,
		json:  in.json,
		lb:    in.lb,
		chunk: in.chunk,
	}
	nin.generation.Store(in.generation.Load() + 1)
	nin.refs.Store(1)
	return nin
}

// chopThreshold is the buffered-byte count past which a streaming input
// relocates its unread tail.
func (in *Input) chopThreshold() int { return in.chunk * chopFactor }

// inputFromString is a convenience used across tests.
func inputFromReaderString(s string) *Input {
	return InputReader(strings.NewReader(s))
}
