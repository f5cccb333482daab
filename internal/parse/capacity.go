package parse

import (
	"fmt"
	"strconv"
	"strings"
)

// Fixed capacity buckets the attribute index partitions spaces into.
const (
	BucketSmall  = "1-4"
	BucketMedium = "5-10"
	BucketLarge  = "11-20"
	BucketHuge   = "20+"
)

// CapacityBuckets lists every recognized bucket key.
var CapacityBuckets = []string{BucketSmall, BucketMedium, BucketLarge, BucketHuge}

// BucketForCapacity places a capacity into exactly one bucket.
func BucketForCapacity(capacity int) string {
	switch {
	case capacity <= 4:
		return BucketSmall
	case capacity <= 10:
		return BucketMedium
	case capacity <= 20:
		return BucketLarge
	default:
		return BucketHuge
	}
}

// CapacityRange is a free-form inclusive "low-high" range used by the
// detail-stage capacity score.
type CapacityRange struct {
	Low  int
	High int
}

// Contains reports whether n falls inside the range.
func (r CapacityRange) Contains(n int) bool {
	return r.Low <= n && n <= r.High
}

// ParseRange parses a "low-high" string. Bucket keys like "20+" or anything
// else that is not two dash-separated integers is an error; callers treat a
// parse failure as "skip the capacity term", never as fatal.
func ParseRange(raw string) (CapacityRange, error) {
	s := strings.TrimSpace(raw)
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return CapacityRange{}, fmt.Errorf("capacity range %q is not of the form low-high", raw)
	}

	low, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return CapacityRange{}, fmt.Errorf("capacity range %q has a non-numeric lower bound", raw)
	}
	high, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return CapacityRange{}, fmt.Errorf("capacity range %q has a non-numeric upper bound", raw)
	}
	if low > high {
		return CapacityRange{}, fmt.Errorf("capacity range %q has low > high", raw)
	}
	return CapacityRange{Low: low, High: high}, nil
}
