package domain

import (
	"errors"
	"time"
)

// Named work queues. Each enrichment kind has its own queue so a burst of
// one kind cannot starve the other.
const (
	QueueSpeech  = "tts"
	QueueImage   = "image"
	QueueDefault = "default"
)

// TaskKind enumerates background enrichment units.
type TaskKind string

const (
	TaskSpeech    TaskKind = "tts"
	TaskThumbnail TaskKind = "thumbnail"
)

// Queue returns the work queue a task kind is routed to.
func (k TaskKind) Queue() string {
	switch k {
	case TaskSpeech:
		return QueueSpeech
	case TaskThumbnail:
		return QueueImage
	default:
		return QueueDefault
	}
}

// TaskStatus enumerates the lifecycle of a dispatched task.
type TaskStatus string

const (
	StatusProcessing TaskStatus = "processing"
	StatusSucceeded  TaskStatus = "succeeded"
	StatusFailed     TaskStatus = "failed"
)

// Job is the message put on a work queue.
type Job struct {
	TaskID     string    `json:"task_id"`
	Kind       TaskKind  `json:"kind"`
	ArticleID  string    `json:"article_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// TaskHandle is returned to the caller right after dispatch.
type TaskHandle struct {
	TaskID  string     `json:"task_id"`
	Status  TaskStatus `json:"status"`
	Message string     `json:"message"`
}

// TaskEnvelope is the terminal result of every background unit. It is a
// value, never a fault: handlers convert their errors into envelopes.
type TaskEnvelope struct {
	Success   bool              `json:"success"`
	SubjectID string            `json:"article_id"`
	Payload   map[string]string `json:"payload,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Succeeded builds a success envelope.
func Succeeded(subjectID string, payload map[string]string) TaskEnvelope {
	return TaskEnvelope{Success: true, SubjectID: subjectID, Payload: payload}
}

// Failed builds a failure envelope from err.
func Failed(subjectID string, err error) TaskEnvelope {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return TaskEnvelope{Success: false, SubjectID: subjectID, Error: msg}
}

// Err converts a failure envelope back into an error, nil on success.
func (e TaskEnvelope) Err() error {
	if e.Success {
		return nil
	}
	return errors.New(e.Error)
}

// TaskResult is what the result store keeps for polling.
type TaskResult struct {
	TaskID    string        `json:"task_id"`
	Kind      TaskKind      `json:"kind"`
	Status    TaskStatus    `json:"status"`
	Envelope  *TaskEnvelope `json:"result,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}
