package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/openmemory-ai/openmemory-go/pkg/llm"
	"github.com/openmemory-ai/openmemory-go/pkg/vectorstore"
)

// fakeLLM replays scripted responses and records every prompt it receives.
type fakeLLM struct {
	mu        sync.Mutex
	responses []string
	calls     [][]llm.Message
	err       error
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	return f.GenerateWithMessages(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func (f *fakeLLM) GenerateWithMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, messages)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", fmt.Errorf("fakeLLM: no scripted response")
	}
	response := f.responses[0]
	f.responses = f.responses[1:]
	return response, nil
}

func (f *fakeLLM) Close() error { return nil }

// lastUserPrompt returns the user message content of the most recent call.
func (f *fakeLLM) lastUserPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.calls) == 0 {
		return ""
	}
	messages := f.calls[len(f.calls)-1]
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}

// lastSystemPrompt returns the system message content of the most recent call.
func (f *fakeLLM) lastSystemPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.calls) == 0 {
		return ""
	}
	for _, msg := range f.calls[len(f.calls)-1] {
		if msg.Role == "system" {
			return msg.Content
		}
	}
	return ""
}

// fakeEmbedder produces a deterministic vector per input text.
type fakeEmbedder struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, text)
	if f.err != nil {
		return nil, f.err
	}

	// Deterministic 4-dim vector derived from the text bytes
	vec := make([]float64, 4)
	for i, b := range []byte(text) {
		vec[i%4] += float64(b)
	}
	return vec, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	result := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		result[i] = vec
	}
	return result, nil
}

func (f *fakeEmbedder) Dimensions() int { return 4 }

func (f *fakeEmbedder) Close() error { return nil }

// fakeStore is an in-memory vector store. Search returns all active
// memories in the caller's scope ordered by ID; similarity is not modeled.
type fakeStore struct {
	mu        sync.Mutex
	memories  map[int64]*vectorstore.Memory
	insertErr error
	updateErr error
	deleteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{memories: make(map[int64]*vectorstore.Memory)}
}

func (f *fakeStore) Insert(ctx context.Context, memory *vectorstore.Memory) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.insertErr != nil {
		return f.insertErr
	}
	cp := *memory
	if cp.State == "" {
		cp.State = vectorstore.StateActive
	}
	f.memories[cp.ID] = &cp
	return nil
}

func (f *fakeStore) Search(ctx context.Context, embedding []float64, opts *vectorstore.SearchOptions) ([]*vectorstore.Memory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var results []*vectorstore.Memory
	for _, mem := range f.memories {
		if mem.State != vectorstore.StateActive {
			continue
		}
		if opts.UserID != "" && mem.UserID != opts.UserID {
			continue
		}
		if opts.AgentID != "" && mem.AgentID != opts.AgentID {
			continue
		}
		cp := *mem
		cp.Score = 1.0
		results = append(results, &cp)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })

	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

func (f *fakeStore) Get(ctx context.Context, id int64, opts *vectorstore.GetOptions) (*vectorstore.Memory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	mem, ok := f.memories[id]
	if !ok {
		return nil, fmt.Errorf("fakeStore: not found")
	}
	cp := *mem
	return &cp, nil
}

func (f *fakeStore) Update(ctx context.Context, id int64, content string, embedding []float64, metadata map[string]interface{}, opts *vectorstore.UpdateOptions) (*vectorstore.Memory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return nil, f.updateErr
	}
	mem, ok := f.memories[id]
	if !ok {
		return nil, fmt.Errorf("fakeStore: not found")
	}
	mem.Content = content
	mem.Embedding = embedding
	if metadata != nil {
		mem.Metadata = metadata
	}
	cp := *mem
	return &cp, nil
}

func (f *fakeStore) UpdateState(ctx context.Context, id int64, state vectorstore.State, opts *vectorstore.UpdateOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	mem, ok := f.memories[id]
	if !ok {
		return fmt.Errorf("fakeStore: not found")
	}
	mem.State = state
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, id int64, opts *vectorstore.DeleteOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.memories[id]; !ok {
		return fmt.Errorf("fakeStore: not found")
	}
	delete(f.memories, id)
	return nil
}

func (f *fakeStore) GetAll(ctx context.Context, opts *vectorstore.GetAllOptions) ([]*vectorstore.Memory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var results []*vectorstore.Memory
	for _, mem := range f.memories {
		if opts.UserID != "" && mem.UserID != opts.UserID {
			continue
		}
		if opts.State != "" && mem.State != opts.State {
			continue
		}
		cp := *mem
		results = append(results, &cp)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (f *fakeStore) DeleteAll(ctx context.Context, opts *vectorstore.DeleteAllOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, mem := range f.memories {
		if opts.UserID != "" && mem.UserID != opts.UserID {
			continue
		}
		delete(f.memories, id)
	}
	return nil
}

func (f *fakeStore) Close() error { return nil }

// nextID returns a monotonically increasing ID generator for writer tests.
func nextID() func() int64 {
	var id int64
	return func() int64 {
		id++
		return id
	}
}
