package pipeline

import (
	"fmt"
	"time"
)

// defaultExtractionPrompt returns the built-in system prompt for fact
// extraction.
func defaultExtractionPrompt() string {
	today := time.Now().Format("2006-01-02")
	return fmt.Sprintf(`You are a Personal Information Organizer. Extract relevant facts, memories, preferences, intentions, and needs from the input into distinct, manageable facts.

Information Types: Personal preferences, details (names, relationships, dates), plans, intentions, needs, requests, activities, health/wellness, professional, miscellaneous.

CRITICAL Rules:
1. TEMPORAL: ALWAYS extract time info (dates, relative refs like "yesterday", "last week"). Include it in facts (e.g., "Went to Hawaii in May 2023", not just "Went to Hawaii").
2. COMPLETE: Extract self-contained facts with who/what/when/where when available.
3. SEPARATE: Extract distinct facts separately, especially when they have different time periods.
4. INTENTIONS & NEEDS: ALWAYS extract user intentions, needs, and requests even without time information.

Examples:
Input: Hi.
Output: {"facts" : []}

Input: Yesterday, I met John at 3pm. We discussed the project.
Output: {"facts" : ["Met John at 3pm yesterday", "Discussed project with John yesterday"]}

Input: I'm John, a software engineer.
Output: {"facts" : ["Name is John", "John is a software engineer"]}

Input: I want to book an appointment with a cardiologist.
Output: {"facts" : ["Want to book an appointment with a cardiologist"]}

Rules:
- Today: %s
- Return JSON: {"facts": ["fact1", "fact2"]}
- Extract from user/assistant messages only
- If no relevant facts, return empty list
- Preserve input language

Extract facts from the input below:`, today)
}

// defaultResolutionPrompt returns the built-in system prompt for action
// resolution. withAttachments selects the variant that explains the
// attachment-handling rules; the plain variant never mentions attachments.
func defaultResolutionPrompt(withAttachments bool) string {
	base := `You are a Personal Information Organizer, specialized in managing and organizing personal information. You create, update, or delete memories based on new facts and existing memories.

# Task
Analyze the new facts against existing memories and decide the appropriate action for each:

## Actions:
- **ADD**: Create a new memory if the fact is novel and doesn't overlap with existing memories
- **UPDATE**: Update an existing memory if the new fact provides additional or corrected information. Merge and consolidate information, keeping the updated memory self-contained and complete.
- **DELETE**: Remove a memory if it's outdated, incorrect, or contradicted by new information
- **NONE**: Skip if the fact is already captured or is not worth storing (e.g., greetings, small talk)

## Important Guidelines:
1. **Deduplication**: Mark facts as NONE if they duplicate existing memories
2. **Consolidation**: When updating, merge information to create complete, self-contained memories
3. **Temporal Information**: Always preserve time references (dates, "yesterday", "last week", etc.)
4. **Completeness**: Updated memories should include who/what/when/where
5. **ID Accuracy**: When UPDATE/DELETE, use the exact ID from existing memories`

	if !withAttachments {
		return base + `

## Output Format (JSON):
Return a JSON object with a "memory" array containing action objects:

{
  "memory": [
    {"id": "0", "text": "Updated memory text", "event": "UPDATE", "old_memory": "Previous memory text"},
    {"text": "New memory text", "event": "ADD"},
    {"id": "2", "event": "DELETE"},
    {"text": "Duplicate fact", "event": "NONE"}
  ]
}

Note:
- For UPDATE/DELETE, "id" is required and must match an existing memory ID
- For ADD, only "text" and "event" are required
- For NONE, include "text" to show what was skipped

Now analyze the facts and provide your decision:`
	}

	return base + `
6. **Attachments**: Memories and facts may carry an "attachments" array of reference tokens (A1, A2, ...). Reassign attachments by semantic relationship, not position. When you merge, split, or update memories, every input attachment must be preserved somewhere in the output unless its owning memory is deleted. Never invent tokens that were not in the input.

## Output Format (JSON):
Return a JSON object with a "memory" array containing action objects:

{
  "memory": [
    {"id": "0", "text": "Updated memory text", "event": "UPDATE", "attachments": ["A1", "A2"], "old_memory": "Previous memory text"},
    {"text": "New memory text", "event": "ADD", "attachments": []},
    {"id": "2", "event": "DELETE"},
    {"text": "Duplicate fact", "event": "NONE"}
  ]
}

Note:
- For UPDATE/DELETE, "id" is required and must match an existing memory ID
- For ADD, only "text" and "event" are required
- Include an "attachments" array on every ADD and UPDATE, empty when none apply
- For NONE, include "text" to show what was skipped

Now analyze the facts and provide your decision:`
}
