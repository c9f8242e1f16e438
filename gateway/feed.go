// cybercraft-launcher/gateway/feed.go
package gateway

import (
	"context"
	"sync"
)

// LogFeed fans game log lines out to at most one subscriber. Subscribing
// again closes the previous subscription and drops whatever it had not
// delivered yet. Lines published while nobody is subscribed are dropped.
type LogFeed struct {
	mutex   sync.Mutex
	current *Subscription
}

func NewLogFeed() *LogFeed {
	return &LogFeed{}
}

func (f *LogFeed) Subscribe() *Subscription {
	sub := &Subscription{notify: make(chan struct{}, 1)}
	f.mutex.Lock()
	prev := f.current
	f.current = sub
	f.mutex.Unlock()
	if prev != nil {
		prev.Close()
	}
	return sub
}

func (f *LogFeed) Publish(line string) {
	f.mutex.Lock()
	sub := f.current
	f.mutex.Unlock()
	if sub != nil {
		sub.push(line)
	}
}

// Subscription is an unbounded, ordered queue of log lines.
type Subscription struct {
	mutex  sync.Mutex
	queue  []string
	closed bool
	notify chan struct{}
}

func (s *Subscription) push(line string) {
	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		return
	}
	s.queue = append(s.queue, line)
	s.mutex.Unlock()
	s.wake()
}

func (s *Subscription) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Next blocks until a line is available. It returns false once the
// subscription is closed or ctx is done.
func (s *Subscription) Next(ctx context.Context) (string, bool) {
	for {
		s.mutex.Lock()
		if s.closed {
			s.mutex.Unlock()
			return "", false
		}
		if len(s.queue) > 0 {
			line := s.queue[0]
			s.queue[0] = ""
			s.queue = s.queue[1:]
			s.mutex.Unlock()
			return line, true
		}
		s.mutex.Unlock()

		select {
		case <-s.notify:
		case <-ctx.Done():
			return "", false
		}
	}
}

func (s *Subscription) Close() {
	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		return
	}
	s.closed = true
	s.queue = nil
	s.mutex.Unlock()
	s.wake()
}
