package session

import "sync"

// Notice is one user-visible notification produced by a cart action.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// FlashQueue collects notices for one session until the next response
// drains them. It is the gateway's rendering of a toast: actions push,
// the following page read pops.
type FlashQueue struct {
	mu      sync.Mutex
	notices []Notice
}

func (q *FlashQueue) Success(msg string) {
	q.push("success", msg)
}

func (q *FlashQueue) Error(msg string) {
	q.push("error", msg)
}

func (q *FlashQueue) push(level, msg string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notices = append(q.notices, Notice{Level: level, Message: msg})
}

// Drain returns the pending notices and empties the queue.
func (q *FlashQueue) Drain() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.notices
	q.notices = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}
