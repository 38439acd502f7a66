package bufpool

import "io"

// Slice is an ordered sequence of pool buffers plus a byte range [start,
// end) interpreted across their concatenation. A Slice owns its buffers:
// Close returns them to the pool. The Buffer/Slice relationship is
// strictly tree-shaped — a Slice owns buffers, and a buffer reaches back
// to the pool only through the pool pointer it is released through, never
// the other way around.
type Slice struct {
	pool    *Pool
	buffers [][]byte
	start   int
	end     int
	closed  bool
}

// Len returns the visible length of the slice (end - start).
func (s *Slice) Len() int { return s.end - s.start }

// Segments returns the ordered contiguous subsegments of the slice's
// backing buffers, clipped to [start, end). For a 3-buffer slice whose
// range starts mid-first-buffer and ends mid-third-buffer this yields
// three segments whose total length equals Len().
//
// Every returned segment is backed directly by pool memory (no copy); the
// caller must not retain a segment beyond the Slice's lifetime.
func (s *Slice) Segments() [][]byte {
	if s.closed || s.end <= s.start {
		return nil
	}

	segs := make([][]byte, 0, len(s.buffers))
	bufStart := 0
	for _, buf := range s.buffers {
		bufEnd := bufStart + len(buf)

		segStart := max(s.start, bufStart)
		segEnd := min(s.end, bufEnd)
		if segStart < segEnd {
			segs = append(segs, buf[segStart-bufStart:segEnd-bufStart])
		}
		if bufEnd >= s.end {
			break
		}
		bufStart = bufEnd
	}
	return segs
}

// Fill reads from r into the slice's segments in order, stopping once the
// slice is full or r returns io.EOF. It returns the number of bytes
// copied. It reads straight into pool memory, without staging through an
// intermediate buffer. The session engine's WRITE path uses FillFrom
// instead, which also takes bytes already read off the socket.
func (s *Slice) Fill(r io.Reader) (int, error) {
	total := 0
	for _, seg := range s.Segments() {
		n, err := io.ReadFull(r, seg)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// CopyFrom copies data into the slice's segments in order. It panics if
// len(data) != s.Len(), since callers are expected to size the slice to
// the payload up front via Pool.Allocate.
func (s *Slice) CopyFrom(data []byte) {
	if len(data) != s.Len() {
		panic("bufpool: CopyFrom length mismatch")
	}
	off := 0
	for _, seg := range s.Segments() {
		off += copy(seg, data[off:])
	}
}

// WriteTo streams the slice's segments to w in order, satisfying
// io.WriterTo. Used by the session engine's writeReply to flush a READ reply's payload directly
// to the socket without copying it into the reply write buffer.
func (s *Slice) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, seg := range s.Segments() {
		n, err := w.Write(seg)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// FillFrom copies prefix into the slice's leading segments, then reads
// the remainder from r. Used by the session engine's WRITE fast path: a
// head-of-fragment buffer already holds the first few bytes of the data
// opaque<> by the time the declared length is known, and the rest is
// still sitting unread on the socket.
func (s *Slice) FillFrom(prefix []byte, r io.Reader) (int, error) {
	total := 0
	prefixUsed := 0
	for _, seg := range s.Segments() {
		n := copy(seg, prefix[prefixUsed:])
		prefixUsed += n
		total += n
		if n < len(seg) {
			rest, err := io.ReadFull(r, seg[n:])
			total += rest
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// Truncate shrinks the slice's visible length to n, used when a READ
// against a backend returns fewer bytes than the capped request size
// a Slice was pre-allocated for.
func (s *Slice) Truncate(n int) {
	if n < 0 || n > s.Len() {
		panic("bufpool: Truncate out of range")
	}
	s.end = s.start + n
}

// Close returns every buffer held by the slice back to the pool. It is
// safe to call multiple times and must never block.
func (s *Slice) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for _, b := range s.buffers {
		s.pool.put(b)
	}
	s.buffers = nil
}
