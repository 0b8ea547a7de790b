package ipmath

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"

	validation "github.com/iamNilotpal/tsidx/pkg/errors"
)

// ErrInvalidRange is matched by every *InvalidRangeError.
var ErrInvalidRange = errors.New("invalid ip range")

// InvalidRangeError reports a range or expansion argument that violates the
// preconditions of ExpandRangeToCIDR.
type InvalidRangeError struct {
	Low    uint64
	High   uint64
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid ip range [%d, %d]: %s", e.Low, e.High, e.Reason)
}

func (e *InvalidRangeError) Is(target error) bool {
	return target == ErrInvalidRange
}

const (
	// MinExpandMask and MaxExpandMask bound the WithExpandSmallerThan threshold.
	MinExpandMask = 24
	MaxExpandMask = 31
)

type expandOptions struct {
	cleanSingleIPs    bool
	expandSmallerThan int // 0 means disabled.
}

// ExpandOption tunes the output of ExpandRangeToCIDR.
type ExpandOption func(*expandOptions)

// WithCleanSingleIPs emits single addresses as a bare IP instead of "ip/32".
func WithCleanSingleIPs() ExpandOption {
	return func(o *expandOptions) {
		o.cleanSingleIPs = true
	}
}

// WithExpandSmallerThan enumerates every address of any block whose mask is
// at least the given value (24-31) instead of emitting the block itself.
func WithExpandSmallerThan(mask int) ExpandOption {
	return func(o *expandOptions) {
		o.expandSmallerThan = mask
	}
}

// ExpandRangeToCIDR returns the minimal list of CIDR blocks exactly covering
// the inclusive range [low, high], in ascending address order.
//
// Blocks are found by longest-common-prefix expansion: from the current
// start, the widest aligned block is start|(start-1), shrunk to the largest
// power of two that still fits below high. A trailing single address is
// emitted as "ip/32" (or a bare IP with WithCleanSingleIPs).
func ExpandRangeToCIDR(low, high uint64, opts ...ExpandOption) ([]string, error) {
	var o expandOptions
	for _, opt := range opts {
		opt(&o)
	}

	if low > high {
		return nil, &InvalidRangeError{Low: low, High: high, Reason: "low is greater than high"}
	}
	if high > MaxIPv4 {
		return nil, &InvalidRangeError{Low: low, High: high, Reason: "high exceeds 255.255.255.255"}
	}
	if o.expandSmallerThan != 0 && (o.expandSmallerThan < MinExpandMask || o.expandSmallerThan > MaxExpandMask) {
		return nil, &InvalidRangeError{
			Low:    low,
			High:   high,
			Reason: fmt.Sprintf("expand threshold %d outside [%d, %d]", o.expandSmallerThan, MinExpandMask, MaxExpandMask),
		}
	}

	// 64-bit arithmetic throughout: start may step past 2^32-1 on the last block.
	var out []string
	start := low
	for start < high {
		end := MaxIPv4
		if start != 0 {
			end = start | (start - 1)
		}
		if end > high {
			end = start + (uint64(1) << (bits.Len64(high-start+1) - 1)) - 1
		}

		mask := MaxMask - bits.Len64(end-start)
		if o.expandSmallerThan != 0 && mask >= o.expandSmallerThan {
			for ip := start; ip <= end; ip++ {
				out = append(out, single(uint32(ip), o.cleanSingleIPs))
			}
		} else {
			out = append(out, fmt.Sprintf("%s/%d", IntToIP(uint32(start)), mask))
		}

		start = end + 1
	}

	if start == high {
		out = append(out, single(uint32(start), o.cleanSingleIPs))
	}

	return out, nil
}

// RangeToCIDR is ExpandRangeToCIDR for dotted-decimal bounds.
func RangeToCIDR(lowIP, highIP string, opts ...ExpandOption) ([]string, error) {
	low, ok := IPToInt(lowIP)
	if !ok {
		return nil, validation.NewValidationError("low", lowIP, fmt.Errorf("malformed ipv4 address %q", lowIP))
	}

	high, ok := IPToInt(highIP)
	if !ok {
		return nil, validation.NewValidationError("high", highIP, fmt.Errorf("malformed ipv4 address %q", highIP))
	}

	return ExpandRangeToCIDR(uint64(low), uint64(high), opts...)
}

// TrimCIDRList replaces every block whose mask is at least the given mask by
// its bare network address. Bare IPs are already single addresses and pass
// through, as do blocks wider than mask.
func TrimCIDRList(list []string, mask int) ([]string, error) {
	if mask < 0 || mask > MaxMask {
		return nil, validation.NewValidationError("mask", mask, fmt.Errorf("mask must be between 0 and %d", MaxMask))
	}

	out := make([]string, 0, len(list))
	for _, entry := range list {
		if !strings.Contains(entry, "/") {
			if _, ok := IPToInt(entry); !ok {
				return nil, validation.NewValidationError("cidr", entry, fmt.Errorf("invalid cidr %q", entry))
			}
			out = append(out, entry)
			continue
		}

		ip, entryMask, ok := parseCIDR(entry)
		if !ok {
			return nil, validation.NewValidationError("cidr", entry, fmt.Errorf("invalid cidr %q", entry))
		}

		if entryMask >= mask {
			out = append(out, IntToIP(ip))
		} else {
			out = append(out, entry)
		}
	}

	return out, nil
}

// CountAddresses returns the number of addresses covered by a list of CIDR
// blocks and bare IPs. Entries are not checked for overlap.
func CountAddresses(list []string) (uint64, error) {
	var total uint64
	for _, entry := range list {
		if !strings.Contains(entry, "/") {
			if _, ok := IPToInt(entry); !ok {
				return 0, validation.NewValidationError("ip", entry, fmt.Errorf("invalid ip %q", entry))
			}
			total++
			continue
		}

		low, high, ok := CIDRToRange(entry)
		if !ok {
			return 0, validation.NewValidationError("cidr", entry, fmt.Errorf("invalid cidr %q", entry))
		}
		total += uint64(high) - uint64(low) + 1
	}

	return total, nil
}

func single(ip uint32, clean bool) string {
	if clean {
		return IntToIP(ip)
	}
	return IntToIP(ip) + "/32"
}
