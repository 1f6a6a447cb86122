package queue

import (
	"context"
	"fmt"
	"log"
)

// Summary is the one-line log form of an event.
func (e SubmissionEvent) Summary() string {
	total := e.Present + e.Absent
	rate := 0
	if total > 0 {
		rate = (e.Present*100 + total/2) / total
	}
	return fmt.Sprintf("class %s %s %s: %d present, %d absent (%d%%) by teacher %s",
		e.ClassID, e.Date, e.Session, e.Present, e.Absent, rate, e.TeacherID)
}

// ConsumeSubmissions calls handle for every submission event until ctx is
// done. Other message types are skipped; undecodable bodies are logged.
func ConsumeSubmissions(ctx context.Context, q Queue, handle func(SubmissionEvent)) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return fmt.Errorf("queue consume init failed: %w", err)
	}
	for msg := range messages {
		if msg.Type != TypeSubmitted {
			continue
		}
		evt, err := DecodeSubmission(msg)
		if err != nil {
			log.Printf("decode submission event: %v", err)
			continue
		}
		handle(evt)
	}
	return nil
}
