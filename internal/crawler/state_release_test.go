//go:build !crawldebug

package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_MarkVisited_PreconditionIsNoop(t *testing.T) {
	t.Parallel()

	s := NewState(1, NewScope(testDomain))

	// Never admitted
	assert.False(t, s.MarkVisited(page("/ghost")))
	assert.Empty(t, s.Visited())
	assert.Nil(t, s.Graph().GetNode(string(page("/ghost"))))

	// Visiting twice
	assert.True(t, s.TryAdmitToFrontier(page("/a"), 0))
	assert.True(t, s.MarkVisited(page("/a")))
	assert.False(t, s.MarkVisited(page("/a")))
	assert.Len(t, s.Visited(), 1)

	// Visit of an unknown entry records nothing
	stats := s.Visit(Entry{URL: page("/ghost")}, []NormalizedURL{page("/x")}, true)
	assert.False(t, stats.Visited)
	assert.False(t, s.Graph().HasEdge(string(page("/ghost")), string(page("/x"))))
}
