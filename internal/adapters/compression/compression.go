package compression

import (
	"fmt"
	"math"
	"runtime"
)

// Options configures the zstd codec used for compressed manifests.
type Options struct {
	// Level is the encoder level, between FastestLevel and BestLevel.
	Level uint8

	// EncoderConcurrency and DecoderConcurrency bound the goroutines used by
	// the codec. Zero means one per CPU.
	EncoderConcurrency uint8
	DecoderConcurrency uint8
}

// Returns Options with a balanced level and one goroutine per CPU.
func DefaultOptions() Options {
	return Options{
		Level:              DefaultLevel,
		EncoderConcurrency: maxConcurrency(),
		DecoderConcurrency: maxConcurrency(),
	}
}

// maxConcurrency is the CPU count, capped to what the options can hold.
func maxConcurrency() uint8 {
	return uint8(min(runtime.NumCPU(), math.MaxUint8))
}

// Checks the level and concurrency settings are within their allowed ranges.
func Validate(input Options) error {
	if input.Level < FastestLevel || input.Level > BestLevel {
		return fmt.Errorf("compression level must be between %d and %d, got %d", FastestLevel, BestLevel, input.Level)
	}

	if input.EncoderConcurrency > maxConcurrency() {
		return fmt.Errorf(
			"encoder concurrency must be between 0 and %d, got %d", maxConcurrency(), input.EncoderConcurrency,
		)
	}

	if input.DecoderConcurrency > maxConcurrency() {
		return fmt.Errorf(
			"decoder concurrency must be between 0 and %d, got %d", maxConcurrency(), input.DecoderConcurrency,
		)
	}

	return nil
}
