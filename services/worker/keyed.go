package worker

import (
	"sync"
)

// KeyedSerializer runs tasks one at a time per key, in submission order.
// Tasks for different keys run concurrently.
type KeyedSerializer[K comparable] struct {
	mu     sync.Mutex
	queues map[K][]func()
	wg     sync.WaitGroup
}

// NewKeyedSerializer creates an empty serializer
func NewKeyedSerializer[K comparable]() *KeyedSerializer[K] {
	return &KeyedSerializer[K]{queues: make(map[K][]func())}
}

// Submit queues task behind earlier tasks for the same key
func (s *KeyedSerializer[K]) Submit(key K, task func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.wg.Add(1)
	queue, running := s.queues[key]
	s.queues[key] = append(queue, task)
	if !running {
		go s.drain(key)
	}
}

func (s *KeyedSerializer[K]) drain(key K) {
	for {
		s.mu.Lock()
		queue := s.queues[key]
		if len(queue) == 0 {
			delete(s.queues, key)
			s.mu.Unlock()
			return
		}
		task := queue[0]
		s.queues[key] = queue[1:]
		s.mu.Unlock()

		func() {
			defer s.wg.Done()
			defer func() { _ = recover() }()
			task()
		}()
	}
}

// Wait blocks until every submitted task has finished
func (s *KeyedSerializer[K]) Wait() {
	s.wg.Wait()
}
