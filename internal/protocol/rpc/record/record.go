// Package record implements ONC RPC record marking (RFC 5531 section 11)
// for stream transports.
//
// A record is sent as one or more fragments. Each fragment starts with a
// 4-byte big-endian header:
//   - Bit 31: last fragment flag (1 = last, 0 = more fragments)
//   - Bits 0-30: fragment length in bytes
package record

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/truenas/ntirpc/internal/logger"
)

const (
	lastFragmentBit = 0x80000000
	lengthMask      = 0x7FFFFFFF

	// DefaultMaxRecordSize bounds a reassembled record when the reader is
	// not given an explicit limit.
	DefaultMaxRecordSize = 1 << 20 // 1MB

	// MaxFragmentSize is the largest length a fragment header can carry.
	MaxFragmentSize = lengthMask
)

// ErrRecordTooLarge is returned when the fragments of one record add up to
// more than the reader's limit.
var ErrRecordTooLarge = errors.New("record: record too large")

type fragmentHeader struct {
	IsLast bool
	Length uint32
}

func parseHeader(buf [4]byte) fragmentHeader {
	header := binary.BigEndian.Uint32(buf[:])
	return fragmentHeader{
		IsLast: (header & lastFragmentBit) != 0,
		Length: header & lengthMask,
	}
}

func (h fragmentHeader) bytes() [4]byte {
	var buf [4]byte
	v := h.Length & lengthMask
	if h.IsLast {
		v |= lastFragmentBit
	}
	binary.BigEndian.PutUint32(buf[:], v)
	return buf
}

// ============================================================================
// Reader
// ============================================================================

// Reader reassembles records from a byte stream.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	r             io.Reader
	maxRecordSize uint32
}

// NewReader returns a Reader over r. A maxRecordSize of zero selects
// DefaultMaxRecordSize.
func NewReader(r io.Reader, maxRecordSize uint32) *Reader {
	if maxRecordSize == 0 {
		maxRecordSize = DefaultMaxRecordSize
	}
	return &Reader{r: r, maxRecordSize: maxRecordSize}
}

// ReadRecord reads fragments until one flagged last and returns their
// concatenated payload.
//
// io.EOF is returned only when the stream ends cleanly before the first
// header of a record. A stream that ends inside a record yields
// io.ErrUnexpectedEOF.
func (r *Reader) ReadRecord() ([]byte, error) {
	var record []byte
	fragments := 0

	for {
		var hdr [4]byte
		if _, err := io.ReadFull(r.r, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) && fragments > 0 {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}

		header := parseHeader(hdr)
		logger.Debug("Read fragment header: last=%v length=%d", header.IsLast, header.Length)

		total := uint64(len(record)) + uint64(header.Length)
		if total > uint64(r.maxRecordSize) {
			logger.Warn("Record size %d exceeds maximum %d", total, r.maxRecordSize)
			return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrRecordTooLarge, total, r.maxRecordSize)
		}

		start := len(record)
		record = append(record, make([]byte, header.Length)...)
		if _, err := io.ReadFull(r.r, record[start:]); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("read fragment: %w", err)
		}
		fragments++

		if header.IsLast {
			if fragments > 1 {
				logger.Debug("Reassembled record: fragments=%d length=%d", fragments, len(record))
			}
			return record, nil
		}
	}
}

// ============================================================================
// Writer
// ============================================================================

// Writer frames records onto a byte stream.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	w            io.Writer
	fragmentSize uint32
}

// NewWriter returns a Writer that sends each record as a single fragment
// when it fits in MaxFragmentSize.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, fragmentSize: MaxFragmentSize}
}

// NewFragmentingWriter returns a Writer that splits records into fragments
// of at most fragmentSize bytes.
func NewFragmentingWriter(w io.Writer, fragmentSize uint32) *Writer {
	if fragmentSize == 0 || fragmentSize > MaxFragmentSize {
		fragmentSize = MaxFragmentSize
	}
	return &Writer{w: w, fragmentSize: fragmentSize}
}

// WriteRecord sends data as one record. Each fragment goes out in a single
// Write call, header included. An empty record is sent as one empty last
// fragment.
func (w *Writer) WriteRecord(data []byte) error {
	for {
		n := len(data)
		if uint64(n) > uint64(w.fragmentSize) {
			n = int(w.fragmentSize)
		}
		header := fragmentHeader{IsLast: n == len(data), Length: uint32(n)}

		hdr := header.bytes()
		frame := make([]byte, 0, 4+n)
		frame = append(frame, hdr[:]...)
		frame = append(frame, data[:n]...)

		if _, err := w.w.Write(frame); err != nil {
			return fmt.Errorf("write fragment: %w", err)
		}
		logger.Debug("Wrote fragment: last=%v length=%d", header.IsLast, header.Length)

		data = data[n:]
		if header.IsLast {
			return nil
		}
	}
}
