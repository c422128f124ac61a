package store

// Event is published to subscribers after the store changes.
type Event int

const (
	// EventChanged follows a local mutation.
	EventChanged Event = iota
	// EventStale follows a reload or merge of externally applied changes;
	// views should re-run their queries.
	EventStale
	// EventSaved follows a successful write to the durable store.
	EventSaved
)

func (e Event) String() string {
	switch e {
	case EventChanged:
		return "changed"
	case EventStale:
		return "stale"
	case EventSaved:
		return "saved"
	default:
		return "unknown"
	}
}

// Subscribe registers for change notifications. The returned channel holds
// at most one pending event: a subscriber that falls behind sees the latest
// notification rather than every one. The cancel func unregisters and closes
// the channel.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, 1)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// publish sends without blocking. Callers must hold the write lock.
func (s *Store) publish(e Event) {
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
			// Replace the pending event with the newer one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- e:
			default:
			}
		}
	}
}
