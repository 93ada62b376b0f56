package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func targets(events []Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.TargetID)
	}
	return out
}

func TestEventQueue_OverwritesOldestWhenFull(t *testing.T) {
	q := newEventQueue(3)
	for _, target := range []string{"a", "b", "c"} {
		assert.False(t, q.push(Event{TargetID: target}))
	}
	assert.True(t, q.push(Event{TargetID: "d"}))
	assert.True(t, q.push(Event{TargetID: "e"}))
	assert.Equal(t, 3, q.pending())

	assert.Equal(t, []string{"c", "d"}, targets(q.take(2)))
	assert.False(t, q.push(Event{TargetID: "f"}))
	assert.Equal(t, []string{"e", "f"}, targets(q.take(10)))
	assert.Nil(t, q.take(1))
}

func TestEventQueue_DefaultCapacity(t *testing.T) {
	assert.Len(t, newEventQueue(0).slots, defaultBufferSize)
}
