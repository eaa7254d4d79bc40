package admission

import (
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// keyPrefix is the base prefix for all counter keys.
const keyPrefix = "rl"

// maxKeyValueLen bounds the identity portion of a counter key. Hostile
// clients control header values and must not control key size in the
// counter store.
const maxKeyValueLen = 128

// WindowStart returns the Unix second the fixed window containing now
// begins at. All processes sharing a counter store compute identical
// window starts from their clocks, which is what makes the window
// global without coordination.
func WindowStart(now time.Time, window time.Duration) int64 {
	secs := int64(window / time.Second)
	if secs <= 0 {
		secs = 1
	}
	epoch := now.Unix()
	return epoch - epoch%secs
}

// Key builds the counter key for one dimension in one window.
// Format: "rl:{dimension}:{value}:{windowStart}". The same key always
// names the same bucket, so concurrent increments from any process
// accumulate in one counter.
func Key(dim Dimension, value string, windowStart int64) string {
	return keyPrefix + ":" + string(dim) + ":" + boundValue(value) + ":" + strconv.FormatInt(windowStart, 10)
}

// boundValue replaces over-long identity values with a fixed-size
// digest so key length stays bounded regardless of header contents.
func boundValue(v string) string {
	if len(v) <= maxKeyValueLen {
		return v
	}
	return "x" + strconv.FormatUint(xxhash.Sum64String(v), 16)
}
