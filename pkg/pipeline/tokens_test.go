package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTokenMapAssignsTokensInSortedOrder(t *testing.T) {
	tm := newTokenMap([]string{"charlie", "alpha", "bravo"})

	assert.Equal(t, "A1", tm.forward["alpha"])
	assert.Equal(t, "A2", tm.forward["bravo"])
	assert.Equal(t, "A3", tm.forward["charlie"])

	id, ok := tm.idFor("A2")
	assert.True(t, ok)
	assert.Equal(t, "bravo", id)
}

func TestTokenMapRoundTrip(t *testing.T) {
	ids := []string{"id-x", "id-y", "id-z"}
	tm := newTokenMap(ids)

	for _, id := range ids {
		token := tm.forward[id]
		back, ok := tm.idFor(token)
		assert.True(t, ok)
		assert.Equal(t, id, back)
	}

	_, ok := tm.idFor("A99")
	assert.False(t, ok)
}

func TestTokensForSkipsUnknownAndReturnsNonNil(t *testing.T) {
	tm := newTokenMap([]string{"alpha", "bravo"})

	tokens := tm.tokensFor([]string{"bravo", "not-mapped", "alpha"})
	assert.Equal(t, []string{"A1", "A2"}, tokens)

	empty := tm.tokensFor(nil)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestTokensForOrdersNumericallyPastNine(t *testing.T) {
	ids := make([]string, 11)
	for i := range ids {
		ids[i] = fmt.Sprintf("att-%02d", i)
	}
	tm := newTokenMap(ids)

	tokens := tm.tokensFor(ids)
	assert.Equal(t, []string{"A1", "A2", "A3", "A4", "A5", "A6", "A7", "A8", "A9", "A10", "A11"}, tokens)
}

func TestUnionAttachmentIDs(t *testing.T) {
	existing := []Existing{
		{AttachmentIDs: []string{"b", "a"}},
		{AttachmentIDs: []string{"a"}},
	}
	facts := []CandidateFact{
		{AttachmentIDs: []string{"c", "b"}},
		{},
	}

	union := unionAttachmentIDs(existing, facts)
	assert.Equal(t, []string{"a", "b", "c"}, union)
}

func TestUnionAttachmentIDsEmpty(t *testing.T) {
	union := unionAttachmentIDs([]Existing{{Text: "x"}}, []CandidateFact{{Text: "y"}})
	assert.Nil(t, union)
}

func TestMergeAttachmentIDsLeavesInputsUntouched(t *testing.T) {
	a := []string{"z", "a"}
	b := []string{"m", "a"}

	merged := mergeAttachmentIDs(a, b)
	assert.Equal(t, []string{"a", "m", "z"}, merged)
	assert.Equal(t, []string{"z", "a"}, a)
	assert.Equal(t, []string{"m", "a"}, b)

	assert.Nil(t, mergeAttachmentIDs(nil, nil))
}
