package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wyfcoding/p2pexchange/internal/ledger/domain"
)

// WalletRedisRepository 基于 Redis 的钱包读模型仓储
type WalletRedisRepository struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewWalletRedisRepository 创建钱包读模型仓储
func NewWalletRedisRepository(client redis.UniversalClient) *WalletRedisRepository {
	return &WalletRedisRepository{
		client: client,
		prefix: "ledger:wallet:",
		ttl:    time.Hour,
	}
}

func (r *WalletRedisRepository) Save(ctx context.Context, wallet *domain.Wallet) error {
	if wallet == nil {
		return nil
	}
	data, err := json.Marshal(wallet)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet: %w", err)
	}
	return r.client.Set(ctx, r.prefix+wallet.WalletID, data, r.ttl).Err()
}

func (r *WalletRedisRepository) Get(ctx context.Context, walletID string) (*domain.Wallet, error) {
	if walletID == "" {
		return nil, nil
	}
	data, err := r.client.Get(ctx, r.prefix+walletID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wallet from redis: %w", err)
	}
	var wallet domain.Wallet
	if err := json.Unmarshal(data, &wallet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet: %w", err)
	}
	return &wallet, nil
}

func (r *WalletRedisRepository) Delete(ctx context.Context, walletID string) error {
	return r.client.Del(ctx, r.prefix+walletID).Err()
}
