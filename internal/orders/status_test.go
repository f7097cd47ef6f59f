package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusNew, StatusProcessing},
		{StatusNew, StatusCancelled},
		{StatusProcessing, StatusFulfilled},
		{StatusProcessing, StatusCancelled},
	}
	for _, c := range allowed {
		assert.True(t, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}

	denied := []struct{ from, to Status }{
		{StatusNew, StatusFulfilled},
		{StatusFulfilled, StatusNew},
		{StatusFulfilled, StatusCancelled},
		{StatusCancelled, StatusProcessing},
		{StatusProcessing, StatusNew},
		{Status("bogus"), StatusNew},
	}
	for _, c := range denied {
		assert.False(t, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}
