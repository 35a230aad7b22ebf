package httpbridge

import (
	"sync"
	"sync/atomic"
)

// frame is one outbound server-sent event: a terminal response or a
// progress update, already JSON-encoded.
type frame struct {
	ID    int64
	Event string // "response" or "progress"
	Data  []byte
}

// hub is an in-memory pub/sub with a small ring buffer for late clients.
type hub struct {
	nextID atomic.Int64

	mu    sync.Mutex
	ring  []frame
	start int
	size  int

	subs      map[int]chan frame
	nextSubID int
}

func newHub(capacity int) *hub {
	if capacity <= 0 {
		capacity = 256
	}
	return &hub{
		ring: make([]frame, capacity),
		subs: make(map[int]chan frame),
	}
}

func (h *hub) publish(event string, data []byte) {
	f := frame{
		ID:    h.nextID.Add(1),
		Event: event,
		Data:  data,
	}

	h.mu.Lock()
	h.pushLocked(f)
	for _, ch := range h.subs {
		// Don't let slow clients block the dispatch loop.
		select {
		case ch <- f:
		default:
		}
	}
	h.mu.Unlock()
}

func (h *hub) subscribe() (<-chan frame, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextSubID
	h.nextSubID++
	ch := make(chan frame, 128)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
		h.mu.Unlock()
	}

	return ch, cancel
}

// snapshotSince returns buffered frames with ID > lastID, oldest-first.
// A lastID of 0 returns the full ring buffer snapshot.
func (h *hub) snapshotSince(lastID int64) []frame {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]frame, 0, h.size)
	for i := 0; i < h.size; i++ {
		f := h.ring[(h.start+i)%len(h.ring)]
		if lastID == 0 || f.ID > lastID {
			out = append(out, f)
		}
	}
	return out
}

func (h *hub) pushLocked(f frame) {
	capacity := len(h.ring)
	if capacity == 0 {
		return
	}

	if h.size < capacity {
		idx := (h.start + h.size) % capacity
		h.ring[idx] = f
		h.size++
		return
	}

	// Overwrite oldest.
	h.ring[h.start] = f
	h.start = (h.start + 1) % capacity
}
