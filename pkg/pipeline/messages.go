package pipeline

import (
	"fmt"
	"strings"

	"github.com/openmemory-ai/openmemory-go/pkg/llm"
)

// FlattenMessages converts a structured message list into role-annotated
// text, one "role: content" line per message. System messages and messages
// with an empty role or content are skipped. This is the single flattening
// behavior used by every call site.
func FlattenMessages(messages []llm.Message) string {
	var parts []string
	for _, msg := range messages {
		if msg.Role == "" || msg.Content == "" || msg.Role == "system" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}
	return strings.Join(parts, "\n")
}
