package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wyfcoding/p2pexchange/internal/referencedata/domain"
)

// MarketRedisRepository 基于 Redis 的市场读模型仓储
type MarketRedisRepository struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewMarketRedisRepository 创建市场读模型仓储
func NewMarketRedisRepository(client redis.UniversalClient) *MarketRedisRepository {
	return &MarketRedisRepository{
		client: client,
		prefix: "referencedata:market:",
		ttl:    24 * time.Hour,
	}
}

func (r *MarketRedisRepository) Save(ctx context.Context, market *domain.Market) error {
	if market == nil {
		return nil
	}
	data, err := json.Marshal(market)
	if err != nil {
		return fmt.Errorf("failed to marshal market: %w", err)
	}
	return r.client.Set(ctx, r.prefix+market.MarketID, data, r.ttl).Err()
}

func (r *MarketRedisRepository) Get(ctx context.Context, marketID string) (*domain.Market, error) {
	if marketID == "" {
		return nil, nil
	}
	data, err := r.client.Get(ctx, r.prefix+marketID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get market from redis: %w", err)
	}
	var market domain.Market
	if err := json.Unmarshal(data, &market); err != nil {
		return nil, fmt.Errorf("failed to unmarshal market: %w", err)
	}
	return &market, nil
}
