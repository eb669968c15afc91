package network

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cbodonnell/tether/pkg/log"
)

// maxRecentRTTs is how many round trips the estimate is taken over.
const maxRecentRTTs = 10

// rttTracker keeps the recent round trip times of pings to the relay.
type rttTracker struct {
	lock   sync.Mutex
	recent []int64
}

func (t *rttTracker) add(rtt int64) {
	if rtt < 0 {
		return
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	t.recent = append(t.recent, rtt)
	if len(t.recent) > maxRecentRTTs {
		t.recent = t.recent[len(t.recent)-maxRecentRTTs:]
	}
}

// estimate is the mean of the recent RTTs once outliers are removed.
func (t *rttTracker) estimate() int64 {
	t.lock.Lock()
	defer t.lock.Unlock()
	rtts := removeOutlierRTTs(t.recent)
	if len(rtts) == 0 {
		return 0
	}
	var sum int64
	for _, rtt := range rtts {
		sum += rtt
	}
	return sum / int64(len(rtts))
}

// removeOutlierRTTs drops RTTs that are more than twice the median and
// also more than 20ms.
func removeOutlierRTTs(recentRTTs []int64) []int64 {
	result := make([]int64, 0, len(recentRTTs))
	median := medianRTT(recentRTTs)
	for _, rtt := range recentRTTs {
		if rtt > 2*median && rtt > 20 {
			continue
		}
		result = append(result, rtt)
	}
	return result
}

func medianRTT(recentRTTs []int64) int64 {
	if len(recentRTTs) == 0 {
		return 0
	}
	sorted := make([]int64, len(recentRTTs))
	copy(sorted, recentRTTs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})
	if len(sorted)%2 == 0 {
		return (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	}
	return sorted[len(sorted)/2]
}

// RTT is the estimated round trip time to the relay in milliseconds, or 0
// before any pong has been received.
func (c *Client) RTT() int64 {
	return c.rtt.estimate()
}

// StartPinging pings the relay every interval until ctx is done.
func (c *Client) StartPinging(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Ping(ctx); err != nil {
				log.Warn("Failed to ping relay: %v", err)
				continue
			}
			log.Trace("Estimated RTT to relay: %dms", c.RTT())
		}
	}
}
