package render

// minifier implements spec.md §4.2 stage 2's whitespace collapse: every
// run of ASCII whitespace — including a leading or trailing run —
// becomes exactly one space. Scenario 6 in spec.md §8 ("  hello   world
// " -> " hello world ") is the authoritative reading; it leaves a
// single leading/trailing space rather than suppressing it, so that
// literal behaviour governs over the stage's looser prose summary.
type minifier struct {
	next  Sink
	inRun bool
}

func newMinifier(next Sink) Sink { return &minifier{next: next} }

func isASCIISpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func (m *minifier) Write(p []byte) (int, error) {
	out := make([]byte, 0, len(p))
	for _, b := range p {
		if isASCIISpace(b) {
			m.inRun = true
			continue
		}
		if m.inRun {
			out = append(out, ' ')
			m.inRun = false
		}
		out = append(out, b)
	}
	if len(out) > 0 {
		if _, err := m.next.Write(out); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (m *minifier) Close() error {
	if m.inRun {
		m.inRun = false
		if _, err := m.next.Write([]byte{' '}); err != nil {
			return err
		}
	}
	return m.next.Close()
}
