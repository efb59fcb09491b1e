package dsp

import "log/slog"

// Context is the render clock shared by every node of one instrument.
// Exactly one owner advances it, once per rendered frame.
type Context struct {
	sampleRate int
	frame      int64
	logger     *slog.Logger
}

// NewContext creates a context at frame zero. A nil logger discards output.
func NewContext(sampleRate int, logger *slog.Logger) *Context {
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Context{
		sampleRate: sampleRate,
		logger:     logger,
	}
}

func (c *Context) SampleRate() int {
	return c.sampleRate
}

func (c *Context) Nyquist() float64 {
	return 0.5 * float64(c.sampleRate)
}

// Frame is the number of frames rendered so far.
func (c *Context) Frame() int64 {
	return c.frame
}

// CurrentTime is the transport time in seconds.
func (c *Context) CurrentTime() float64 {
	return float64(c.frame) / float64(c.sampleRate)
}

// Advance moves the clock forward by one frame.
func (c *Context) Advance() {
	c.frame++
}

// AdvanceFrames moves the clock forward by n frames.
func (c *Context) AdvanceFrames(n int) {
	if n > 0 {
		c.frame += int64(n)
	}
}

func (c *Context) Logger() *slog.Logger {
	return c.logger
}
