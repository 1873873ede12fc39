package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/usecase"
)

const keyPrefix = "tabungan:presets:active:"

// DefaultTTL 快捷金額快取存活時間
const DefaultTTL = 10 * time.Minute

// PresetCache 以 Redis 快取啟用中的快捷金額 (read-through)，編輯時清除
// client 為 nil 時直接穿透到 store
type PresetCache struct {
	usecase.PresetStore
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewPresetCache(store usecase.PresetStore, client *redis.Client, ttl time.Duration, logger *slog.Logger) *PresetCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PresetCache{PresetStore: store, client: client, ttl: ttl, logger: logger}
}

func cacheKey(t domain.TransactionType) string {
	return keyPrefix + string(t)
}

// ActivePresets 先查快取，未命中或 Redis 故障時讀取資料庫
func (c *PresetCache) ActivePresets(ctx context.Context, tranType domain.TransactionType) ([]domain.PresetNominal, error) {
	if c.client == nil {
		return c.PresetStore.ActivePresets(ctx, tranType)
	}
	key := cacheKey(tranType)
	cached, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var list []domain.PresetNominal
		if json.Unmarshal([]byte(cached), &list) == nil {
			return list, nil
		}
		c.logger.Warn("drop malformed preset cache", slog.String("key", key))
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("redis get failed", slog.String("key", key), slog.Any("error", err))
	}

	list, err := c.PresetStore.ActivePresets(ctx, tranType)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(list); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("redis set failed", slog.String("key", key), slog.Any("error", err))
		}
	}
	return list, nil
}

func (c *PresetCache) CreatePreset(ctx context.Context, preset *domain.PresetNominal) error {
	if err := c.PresetStore.CreatePreset(ctx, preset); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *PresetCache) UpdatePreset(ctx context.Context, preset *domain.PresetNominal) error {
	if err := c.PresetStore.UpdatePreset(ctx, preset); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *PresetCache) DeletePreset(ctx context.Context, id int64) error {
	if err := c.PresetStore.DeletePreset(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// invalidate 類型可能被改動，兩種都清掉
func (c *PresetCache) invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	keys := []string{cacheKey(domain.TransactionTypeDeposit), cacheKey(domain.TransactionTypeWithdrawal)}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("redis del failed", slog.Any("keys", keys), slog.Any("error", err))
	}
}

// Connect 建立 Redis 連線；addr 為空回傳 nil (停用快取)
// 連線失敗只記錄警告並停用快取
func Connect(ctx context.Context, addr string, logger *slog.Logger) *redis.Client {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		logger.Info("redis address not set, preset cache disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, preset cache disabled", slog.String("addr", addr), slog.Any("error", err))
		client.Close()
		return nil
	}
	logger.Info("redis connected", slog.String("addr", addr))
	return client
}

var _ usecase.PresetStore = (*PresetCache)(nil)
