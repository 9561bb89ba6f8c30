package processor

// CapacityLedger tracks accumulated input units against a fixed capacity.
type CapacityLedger struct {
	capacity int
	count    int
}

func NewCapacityLedger(capacity int) CapacityLedger {
	return CapacityLedger{capacity: capacity}
}

func (l CapacityLedger) Capacity() int { return l.capacity }

func (l CapacityLedger) Count() int { return l.count }

func (l CapacityLedger) Empty() bool { return l.count <= 0 }

// Free is the raw room left, ignoring any finished or acceptance gate.
func (l CapacityLedger) Free() int {
	if l.count >= l.capacity {
		return 0
	}
	return l.capacity - l.count
}

// Deposit accepts up to candidate units, bounded by space and by raw capacity.
// Fresh input counts as zero progress, so the clock is diluted by relative mass.
func (l *CapacityLedger) Deposit(candidate, space int, clock *ProgressClock) (accepted int, progressChanged bool) {
	accepted = min(candidate, space, l.Free())
	if accepted <= 0 {
		return 0, false
	}
	if clock != nil {
		progressChanged = clock.Set(weightedAverage(0, accepted, clock.Progress(), l.count))
	}
	l.count += accepted
	return accepted, progressChanged
}

// Remove takes up to n units out and returns how many were removed.
func (l *CapacityLedger) Remove(n int) int {
	if n <= 0 {
		return 0
	}
	n = min(n, l.count)
	l.count -= n
	return n
}

func (l *CapacityLedger) Reset() {
	l.count = 0
}

func (l *CapacityLedger) restore(count int) {
	l.count = count
}
