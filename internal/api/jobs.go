package api

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"
)

const (
	jobCleanupInterval = 5 * time.Minute
	jobUpdateBuffer    = 10
)

// Job tracks one background assessment run owned by the server.
type Job struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Status     string     `json:"status"`
	SessionID  string     `json:"session_id,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// JobManager keeps the server's job registry and fans job updates out to
// subscribers.
type JobManager struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	subscribers map[chan Job]struct{}
	maxJobs     int // retention cap enforced by the cleanup loop
}

func NewJobManager() *JobManager {
	m := &JobManager{
		jobs:        make(map[string]*Job),
		subscribers: make(map[chan Job]struct{}),
		maxJobs:     1000,
	}
	go m.cleanupLoop()
	return m
}

func (m *JobManager) CreateJob(jobType, sessionID string) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := &Job{
		ID:        generateID("job"),
		Type:      jobType,
		Status:    "pending",
		SessionID: sessionID,
	}
	m.jobs[job.ID] = job
	m.broadcast(*job)
	return job
}

func (m *JobManager) UpdateJob(id string, update func(*Job)) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil
	}
	update(job)
	m.broadcast(*job)
	return job
}

func (m *JobManager) GetJob(id string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil
	}
	snapshot := *job
	return &snapshot
}

// ListJobs returns job snapshots, newest first by StartedAt. Jobs that
// never started sort last, ordered by ID. A non-positive limit returns
// everything.
func (m *JobManager) ListJobs(limit int) []Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, *job)
	}

	sort.Slice(jobs, func(i, j int) bool {
		a, b := jobs[i], jobs[j]
		switch {
		case a.StartedAt != nil && b.StartedAt != nil:
			return a.StartedAt.After(*b.StartedAt)
		case a.StartedAt != nil:
			return true
		case b.StartedAt != nil:
			return false
		default:
			return a.ID > b.ID
		}
	})

	if limit > 0 && limit < len(jobs) {
		jobs = jobs[:limit]
	}
	return jobs
}

// Subscribe registers a listener for job updates. The returned func
// unregisters it and closes the channel; calling it twice is safe.
func (m *JobManager) Subscribe() (chan Job, func()) {
	ch := make(chan Job, jobUpdateBuffer)
	m.mu.Lock()
	m.subscribers[ch] = struct{}{}
	m.mu.Unlock()
	return ch, func() {
		m.mu.Lock()
		if _, ok := m.subscribers[ch]; ok {
			delete(m.subscribers, ch)
			close(ch)
		}
		m.mu.Unlock()
	}
}

// broadcast sends to every subscriber without blocking; a full buffer
// means that subscriber misses this update. Callers hold m.mu.
func (m *JobManager) broadcast(job Job) {
	for ch := range m.subscribers {
		select {
		case ch <- job:
		default:
		}
	}
}

// generateID returns prefix_<random hex>. Random so job identifiers
// cannot be enumerated.
func generateID(prefix string) string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b))
}

func (m *JobManager) cleanupLoop() {
	ticker := time.NewTicker(jobCleanupInterval)
	defer ticker.Stop()
	for range ticker.C {
		m.pruneFinished()
	}
}

// pruneFinished evicts the oldest finished jobs until the registry is
// back under maxJobs. Running and pending jobs are never evicted.
func (m *JobManager) pruneFinished() {
	m.mu.Lock()
	defer m.mu.Unlock()

	excess := len(m.jobs) - m.maxJobs
	if excess <= 0 {
		return
	}

	finishedAt := make(map[string]time.Time)
	ids := make([]string, 0, len(m.jobs))
	for id, job := range m.jobs {
		if job.Status != "done" && job.Status != "error" {
			continue
		}
		at := time.Now()
		if job.FinishedAt != nil {
			at = *job.FinishedAt
		}
		finishedAt[id] = at
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		return finishedAt[ids[i]].Before(finishedAt[ids[j]])
	})

	if excess > len(ids) {
		excess = len(ids)
	}
	for _, id := range ids[:excess] {
		delete(m.jobs, id)
	}
}

// SetMaxJobs adjusts the retention cap. Non-positive values are ignored.
func (m *JobManager) SetMaxJobs(max int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if max > 0 {
		m.maxJobs = max
	}
}
