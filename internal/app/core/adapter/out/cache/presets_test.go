package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
)

func TestPresetCachePassthroughWithoutRedis(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	c := NewPresetCache(store, nil, 0, nil)

	p := &domain.PresetNominal{Type: domain.TransactionTypeDeposit, Amount: 5000, SortOrder: 1, Active: true}
	if err := c.CreatePreset(ctx, p); err != nil {
		t.Fatalf("CreatePreset: %v", err)
	}
	list, err := c.ActivePresets(ctx, domain.TransactionTypeDeposit)
	if err != nil || len(list) != 1 || list[0].Amount != 5000 {
		t.Fatalf("ActivePresets = %+v, %v", list, err)
	}
	p.Active = false
	if err := c.UpdatePreset(ctx, p); err != nil {
		t.Fatalf("UpdatePreset: %v", err)
	}
	list, _ = c.ActivePresets(ctx, domain.TransactionTypeDeposit)
	if len(list) != 0 {
		t.Fatalf("inactive preset still listed: %+v", list)
	}
}

func TestPresetCacheFallsBackWhenRedisDown(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	_ = store.CreatePreset(ctx, &domain.PresetNominal{Type: domain.TransactionTypeWithdrawal, Amount: 1000, Active: true})

	// 沒有伺服器在聽的位址：讀取仍應回到資料庫
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	c := NewPresetCache(store, client, time.Minute, nil)

	list, err := c.ActivePresets(ctx, domain.TransactionTypeWithdrawal)
	if err != nil || len(list) != 1 {
		t.Fatalf("ActivePresets = %+v, %v", list, err)
	}
	if err := c.DeletePreset(ctx, list[0].ID); err != nil {
		t.Fatalf("DeletePreset: %v", err)
	}
}

func TestConnectWithoutAddrDisablesCache(t *testing.T) {
	if Connect(context.Background(), "", nil) != nil {
		t.Fatal("expected nil client")
	}
}
