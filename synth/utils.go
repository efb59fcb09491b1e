package synth

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/cwbudde/algo-approx"
)

var (
	// ErrOutOfRange reports an argument outside its documented window.
	ErrOutOfRange = errors.New("value outside bounds")
	// ErrIndexOutOfRange reports a toggle or weight on a slot that does not exist.
	ErrIndexOutOfRange = errors.New("index out of range")
)

func checkRange(name string, v, lo, hi float64) error {
	if math.IsNaN(v) || v < lo || v > hi {
		return fmt.Errorf("%s %g not in [%g, %g]: %w", name, v, lo, hi, ErrOutOfRange)
	}
	return nil
}

func checkIntRange(name string, v, lo, hi int) error {
	if v < lo || v > hi {
		return fmt.Errorf("%s %d not in [%d, %d]: %w", name, v, lo, hi, ErrOutOfRange)
	}
	return nil
}

func checkIndex(name string, idx, n int) error {
	if idx < 0 || idx >= n {
		return fmt.Errorf("%s index %d not in [0, %d): %w", name, idx, n, ErrIndexOutOfRange)
	}
	return nil
}

// rejected logs a refused change and hands the error back to the caller.
func rejected(logger *slog.Logger, op string, err error) error {
	if err != nil {
		logger.Warn("rejected", "op", op, "err", err)
	}
	return err
}

func pow2Approx(x float64) float64 {
	const ln2 = 0.69314718055994530942
	return float64(approx.FastExp(float32(x * ln2)))
}

func centsToRatio(cents float64) float64 {
	if cents == 0 {
		return 1
	}
	return pow2Approx(cents / 1200.0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
