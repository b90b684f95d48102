package engine

// FrameClock numbers settle cycles.
//
// Frame numbers are logical: they increase by one per settle regardless of
// wall time, so a journal written by one run lines up with a replay of the
// same scenario. The engine is single-threaded, so no synchronization is
// needed.
type FrameClock struct {
	frame int64
}

// NewFrameClock creates a clock whose next frame is start+1. A journal
// session resumed after frame n passes n.
func NewFrameClock(start int64) *FrameClock {
	return &FrameClock{frame: start}
}

// Advance starts a new frame and returns its number.
func (c *FrameClock) Advance() int64 {
	c.frame++
	return c.frame
}

// Frame returns the number of the last started frame, or the start value
// before the first Advance.
func (c *FrameClock) Frame() int64 {
	return c.frame
}
