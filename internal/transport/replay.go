package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"
)

// Record is one line of a recorded session.
type Record struct {
	Time    time.Time       `json:"time"`
	Topic   string          `json:"topic"`
	Schema  string          `json:"schema"`
	Message json.RawMessage `json:"message"`
}

// Replay plays a recorded session (JSON lines of Record) at its original
// pace. It is read-only: advertise and publish fail with ErrReadOnly.
type Replay struct {
	path   string
	loop   bool
	events chan Event

	mu         sync.Mutex
	subscribed map[string]bool
	ready      chan struct{} // closed by the first Subscribe
	readyOnce  sync.Once
}

func NewReplay(path string, loop bool) *Replay {
	return &Replay{
		path:       path,
		loop:       loop,
		events:     make(chan Event, 64),
		subscribed: make(map[string]bool),
		ready:      make(chan struct{}),
	}
}

func (r *Replay) Events() <-chan Event {
	return r.events
}

// LoadRecords reads every record of a session file.
func LoadRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("recording line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	return records, nil
}

// Run announces the recorded topics, waits for the first Subscribe, then
// delivers the subscribed messages until the recording ends (or forever when
// looping) or ctx is done.
func (r *Replay) Run(ctx context.Context) error {
	records, err := LoadRecords(r.path)
	if err != nil {
		return err
	}

	if !r.emit(ctx, Event{Topics: recordedTopics(records)}) {
		return nil
	}
	select {
	case <-r.ready:
	case <-ctx.Done():
		return nil
	}

	for {
		var prev time.Time
		for _, rec := range records {
			if !prev.IsZero() && rec.Time.After(prev) {
				if !sleep(ctx, rec.Time.Sub(prev)) {
					return nil
				}
			}
			prev = rec.Time

			if !r.isSubscribed(rec.Topic) {
				continue
			}
			ev := Event{Message: &MessageEvent{
				Topic:       rec.Topic,
				Schema:      rec.Schema,
				Message:     rec.Message,
				ReceiveTime: time.Now(),
			}}
			if !r.emit(ctx, ev) {
				return nil
			}
		}
		if !r.loop || len(records) == 0 {
			return nil
		}
	}
}

func (r *Replay) Subscribe(topics []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribed = make(map[string]bool, len(topics))
	for _, t := range topics {
		r.subscribed[t] = true
	}
	r.readyOnce.Do(func() { close(r.ready) })
	return nil
}

func (r *Replay) Advertise(topic, schema string) error { return ErrReadOnly }
func (r *Replay) Unadvertise(topic string) error       { return ErrReadOnly }
func (r *Replay) Publish(topic string, msg any) error  { return ErrReadOnly }

func (r *Replay) isSubscribed(topic string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subscribed[topic]
}

func (r *Replay) emit(ctx context.Context, ev Event) bool {
	select {
	case r.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func recordedTopics(records []Record) []Topic {
	seen := make(map[string]string)
	for _, rec := range records {
		seen[rec.Topic] = rec.Schema
	}
	topics := make([]Topic, 0, len(seen))
	for name, schema := range seen {
		topics = append(topics, Topic{Name: name, Schema: schema})
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Name < topics[j].Name })
	return topics
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
