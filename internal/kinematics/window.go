package kinematics

import "time"

type sample struct {
	t time.Time
	v float64
}

// movingAverage is a trailing mean over samples whose time lies in
// (t-width, t] for the most recently added t. The buffer stays sorted by
// time: a sample older than its predecessor first drops every buffered
// sample outside its own window.
type movingAverage struct {
	width time.Duration
	buf   []sample
	head  int
	sum   float64
}

func newMovingAverage(width time.Duration) *movingAverage {
	return &movingAverage{width: width}
}

// add appends a sample, evicts those that fell out of the window and
// returns the current mean.
func (m *movingAverage) add(t time.Time, v float64) float64 {
	cutoff := t.Add(-m.width)
	if n := len(m.buf); n > m.head && t.Before(m.buf[n-1].t) {
		m.rewind(cutoff, t)
	}

	m.buf = append(m.buf, sample{t: t, v: v})
	m.sum += v

	for m.head < len(m.buf)-1 && !m.buf[m.head].t.After(cutoff) {
		m.sum -= m.buf[m.head].v
		m.head++
	}

	// Compact once the evicted prefix dominates the buffer.
	if m.head > 64 && m.head*2 > len(m.buf) {
		n := copy(m.buf, m.buf[m.head:])
		m.buf = m.buf[:n]
		m.head = 0
		m.sum = 0
		for _, s := range m.buf {
			m.sum += s.v
		}
	}

	return finite(m.sum / float64(len(m.buf)-m.head))
}

// rewind keeps only the buffered samples in (cutoff, t].
func (m *movingAverage) rewind(cutoff, t time.Time) {
	kept := m.buf[:0]
	m.sum = 0
	for _, s := range m.buf[m.head:] {
		if s.t.After(cutoff) && !s.t.After(t) {
			kept = append(kept, s)
			m.sum += s.v
		}
	}
	m.buf = kept
	m.head = 0
}
