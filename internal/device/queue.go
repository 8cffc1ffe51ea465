package device

import "sync"

// tokenQueue is the ordered buffer of pending serial command tokens.
//
// Insertion order is transmission order. FIFO is load-bearing: speed
// changes are runs of relative step tokens whose cumulative effect
// depends on order.
type tokenQueue struct {
	mu     sync.Mutex
	tokens []Token
}

// Push appends one token.
func (q *tokenQueue) Push(t Token) {
	q.mu.Lock()
	q.tokens = append(q.tokens, t)
	q.mu.Unlock()
}

// PushN appends n copies of the same token.
func (q *tokenQueue) PushN(t Token, n int) {
	q.mu.Lock()
	for i := 0; i < n; i++ {
		q.tokens = append(q.tokens, t)
	}
	q.mu.Unlock()
}

// Pop removes and returns the oldest token.
func (q *tokenQueue) Pop() (Token, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tokens) == 0 {
		return 0, false
	}
	t := q.tokens[0]
	q.tokens = q.tokens[1:]
	return t, true
}

// Len returns the number of pending tokens.
func (q *tokenQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tokens)
}

// Snapshot copies out the pending tokens in transmission order.
func (q *tokenQueue) Snapshot() []Token {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Token, len(q.tokens))
	copy(out, q.tokens)
	return out
}
