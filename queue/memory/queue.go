package memory

import (
	"context"
	"sync"

	"github.com/vcon-dev/vcon-mcp-sub005/queue"
	"github.com/vcon-dev/vcon-mcp-sub005/vcon"
)

type jobKey struct {
	uuid   string
	source string
	index  int
}

type jobState struct {
	text     string
	claimed  bool
	attempts int
}

// Embedding is one stored row, exposed so tests can assert on the outcome of
// a worker run.
type Embedding struct {
	Vector []float32
	Model  string
}

type MemoryQueue struct {
	options    queue.Options
	jobs       map[jobKey]*jobState
	order      []jobKey
	embeddings map[jobKey]Embedding
	mtx        sync.Mutex
}

func (m *MemoryQueue) Enqueue(ctx context.Context, units []vcon.ContentUnit) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	for _, unit := range units {
		key := jobKey{uuid: unit.VconUUID, source: unit.Source, index: unit.Index}

		if existing, exists := m.jobs[key]; exists {
			if existing.text == unit.Text {
				continue
			}
			existing.text = unit.Text
			existing.claimed = false
			existing.attempts = 0
			continue
		}

		m.jobs[key] = &jobState{text: unit.Text}
		m.order = append(m.order, key)
	}

	return nil
}

func (m *MemoryQueue) Claim(ctx context.Context) (*queue.Job, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	for _, key := range m.order {
		state, exists := m.jobs[key]
		if !exists || state.claimed {
			continue
		}

		state.claimed = true
		state.attempts++

		return &queue.Job{
			VconUUID: key.uuid,
			Source:   key.source,
			Index:    key.index,
			Text:     state.text,
			Attempts: state.attempts,
		}, nil
	}

	return nil, nil
}

func (m *MemoryQueue) Complete(ctx context.Context, job *queue.Job, vector []float32, model string) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	key := jobKey{uuid: job.VconUUID, source: job.Source, index: job.Index}

	cpy := make([]float32, len(vector))
	copy(cpy, vector)

	m.embeddings[key] = Embedding{Vector: cpy, Model: model}

	delete(m.jobs, key)

	return nil
}

func (m *MemoryQueue) Fail(ctx context.Context, job *queue.Job) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	key := jobKey{uuid: job.VconUUID, source: job.Source, index: job.Index}

	state, exists := m.jobs[key]
	if !exists {
		return nil
	}

	if job.Attempts >= queue.MaxAttempts {
		delete(m.jobs, key)
		return nil
	}

	state.claimed = false

	return nil
}

// Pending reports how many jobs are still waiting or claimed.
func (m *MemoryQueue) Pending() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return len(m.jobs)
}

// Stored returns the embedding written for one content unit, if any.
func (m *MemoryQueue) Stored(uuid, source string, index int) (Embedding, bool) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	emb, exists := m.embeddings[jobKey{uuid: uuid, source: source, index: index}]
	return emb, exists
}

func NewQueue(opts ...queue.Option) *MemoryQueue {
	options := queue.NewOptions(opts...)

	return &MemoryQueue{
		options:    options,
		jobs:       map[jobKey]*jobState{},
		embeddings: map[jobKey]Embedding{},
		mtx:        sync.Mutex{},
	}
}
