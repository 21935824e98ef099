package questions

import "sync"

// RecencyCache remembers the question ids an account saw most recently,
// so consecutive sessions repeat less. It is a process-local heuristic:
// losing it (restart, second replica) only costs repeat avoidance, never
// correctness, and it can be swapped for a durable store without
// touching the Selector contract.
type RecencyCache struct {
	mu       sync.Mutex
	capacity int
	byAcct   map[string][]string
}

func NewRecencyCache(capacity int) *RecencyCache {
	if capacity <= 0 {
		capacity = 100
	}
	return &RecencyCache{capacity: capacity, byAcct: make(map[string][]string)}
}

// Recent returns up to n most recently recorded ids, newest last.
func (c *RecencyCache) Recent(accountID string, n int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := c.byAcct[accountID]
	if len(ids) > n {
		ids = ids[len(ids)-n:]
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// Record appends ids, evicting the oldest entries past capacity.
func (c *RecencyCache) Record(accountID string, ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf := append(c.byAcct[accountID], ids...)
	if len(buf) > c.capacity {
		buf = buf[len(buf)-c.capacity:]
	}
	c.byAcct[accountID] = buf
}
