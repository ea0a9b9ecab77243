package core

import (
	"github.com/openmemory-ai/openmemory-go/pkg/vectorstore"
)

// fromStoreMemory converts a vectorstore.Memory to a core.Memory.
func fromStoreMemory(m *vectorstore.Memory) *Memory {
	if m == nil {
		return nil
	}
	return &Memory{
		ID:        m.ID,
		UserID:    m.UserID,
		AgentID:   m.AgentID,
		Content:   m.Content,
		Embedding: m.Embedding,
		Metadata:  m.Metadata,
		State:     MemoryState(m.State),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		Score:     m.Score,
	}
}

// fromStoreMemories converts a slice of vectorstore memories.
func fromStoreMemories(memories []*vectorstore.Memory) []*Memory {
	result := make([]*Memory, 0, len(memories))
	for _, m := range memories {
		result = append(result, fromStoreMemory(m))
	}
	return result
}
