package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/marketgrid/storefront/internal/kafka"
	"github.com/marketgrid/storefront/internal/orders"
	"github.com/marketgrid/storefront/internal/redisx"
)

// Service maintains caches off the order event stream: it warms the order
// status cache and drops cached catalog pages for the store that just sold,
// so quantities are re-read from Postgres.
type Service struct {
	Redis       *redis.Client
	ServiceName string
}

func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderCreated {
		return nil
	}

	// dedup by event id; redelivery after a crash is expected
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}

	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, p.OrderID)
	if err := s.Redis.Set(ctx, statusKey, `{"status":"new"}`, redisx.TTLStatusCache).Err(); err != nil {
		return err
	}

	pattern := fmt.Sprintf(redisx.KeyCatalogStorePattern, p.StoreID)
	if err := redisx.DeleteByPattern(ctx, s.Redis, pattern); err != nil {
		return err
	}

	zap.L().Info("order event processed",
		zap.Int64("order_id", p.OrderID),
		zap.Int64("store_id", p.StoreID),
		zap.Int("lines", len(p.Items)),
	)
	return nil
}
