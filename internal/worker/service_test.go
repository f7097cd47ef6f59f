package worker

import (
	"context"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"

	kafkax "github.com/marketgrid/storefront/internal/kafka"
	"github.com/marketgrid/storefront/internal/orders"
)

func TestHandleIgnoresOtherEvents(t *testing.T) {
	s := &Service{ServiceName: "test"} // Redis untouched before the type check
	env := orders.Envelope{EventID: "e1", EventType: "PaymentAuthorized", EventVersion: 1, OccurredAt: time.Now()}
	err := s.HandleOrderCreated(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(env)})
	assert.NoError(t, err)
}

func TestHandleRejectsGarbage(t *testing.T) {
	s := &Service{ServiceName: "test"}
	err := s.HandleOrderCreated(context.Background(), kafkago.Message{Value: []byte("not json")})
	assert.Error(t, err)
}
