package game

import "sync"

// Input is one player command. Held controls (movement, walk, farm, build)
// stay in effect until the next command changes them; triggers (fire, eat,
// leave) act on the next tick only.
type Input struct {
	Move        int      `json:"move" msgpack:"move"` // +1 up, -1 down, 0 stop
	StrafeLeft  bool     `json:"strafeLeft" msgpack:"strafeLeft"`
	StrafeRight bool     `json:"strafeRight" msgpack:"strafeRight"`
	Walk        bool     `json:"walk" msgpack:"walk"`
	Aim         *float64 `json:"aim,omitempty" msgpack:"aim,omitempty"` // Degrees
	Farm        bool     `json:"farm" msgpack:"farm"`
	Build       bool     `json:"build" msgpack:"build"`

	Fire  bool `json:"fire" msgpack:"fire"`
	Eat   bool `json:"eat" msgpack:"eat"`
	Leave bool `json:"leave" msgpack:"leave"`
}

// Merge folds a newer command into in.
func (in *Input) Merge(cmd Input) {
	in.Move = clampMove(cmd.Move)
	in.StrafeLeft = cmd.StrafeLeft
	in.StrafeRight = cmd.StrafeRight
	in.Walk = cmd.Walk
	in.Farm = cmd.Farm
	in.Build = cmd.Build
	if cmd.Aim != nil {
		a := *cmd.Aim
		in.Aim = &a
	}
	in.Fire = in.Fire || cmd.Fire
	in.Eat = in.Eat || cmd.Eat
	in.Leave = in.Leave || cmd.Leave
}

// ClearTriggers drops the one-shot controls after a tick used them.
func (in *Input) ClearTriggers() {
	in.Fire = false
	in.Eat = false
	in.Leave = false
}

func clampMove(m int) int {
	switch {
	case m > 0:
		return 1
	case m < 0:
		return -1
	default:
		return 0
	}
}

// InputQueue is a bounded FIFO of commands shared by API handlers and the
// tick loop.
type InputQueue struct {
	mu    sync.Mutex
	buf   []Input
	head  int
	count int

	dropped uint64
}

// NewInputQueue creates a queue holding at most capacity commands.
func NewInputQueue(capacity int) *InputQueue {
	if capacity <= 0 {
		capacity = 256
	}
	return &InputQueue{buf: make([]Input, capacity)}
}

// Push enqueues a command. It returns false when the queue is full.
func (q *InputQueue) Push(in Input) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == len(q.buf) {
		q.dropped++
		return false
	}
	q.buf[(q.head+q.count)%len(q.buf)] = in
	q.count++
	return true
}

// DrainInto merges every queued command into dst in arrival order and
// returns how many there were.
func (q *InputQueue) DrainInto(dst *Input) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.count
	for i := 0; i < n; i++ {
		dst.Merge(q.buf[q.head])
		q.buf[q.head] = Input{}
		q.head = (q.head + 1) % len(q.buf)
	}
	q.count = 0
	return n
}

// Len returns the number of queued commands.
func (q *InputQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Dropped returns how many commands were rejected because the queue was full.
func (q *InputQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
