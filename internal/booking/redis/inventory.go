package redis

import (
	"context"
	"fmt"
	"strconv"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/go-redis/redis/v8"
)

// reserveScript returns -1 when the counter is missing, -2 when stock is
// short, -3 for a non-positive quantity, otherwise the stock left after the
// decrement.
var reserveScript = redis.NewScript(`
local qty = tonumber(ARGV[1])
if not qty or qty <= 0 then
	return -3
end
local stock = redis.call('GET', KEYS[1])
if not stock then
	return -1
end
if tonumber(stock) < qty then
	return -2
end
return redis.call('DECRBY', KEYS[1], qty)
`)

// releaseScript only increments an existing counter so that a deleted tier
// does not reappear.
var releaseScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
return redis.call('INCRBY', KEYS[1], tonumber(ARGV[1]))
`)

type Inventory struct {
	Client *redis.Client
	Logger *logger.Logger
}

func NewInventory(client *redis.Client, log *logger.Logger) *Inventory {
	return &Inventory{Client: client, Logger: log}
}

func stockKey(eventID, tierID string) string {
	return fmt.Sprintf("tier_stock:%s:%s", eventID, tierID)
}

// Reserve atomically takes quantity from the tier counter.
func (i *Inventory) Reserve(ctx context.Context, eventID, tierID string, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, models.ErrInvalidQuantity
	}
	left, err := reserveScript.Run(ctx, i.Client, []string{stockKey(eventID, tierID)}, quantity).Int64()
	if err != nil {
		return false, fmt.Errorf("redis reserve: %w", err)
	}

	switch left {
	case -1:
		return false, nil
	case -2:
		return true, models.ErrSoldOut
	case -3:
		return false, models.ErrInvalidQuantity
	}

	i.Logger.Debug("REDIS", fmt.Sprintf("Reserved %d of %s/%s, %d left", quantity, eventID, tierID, left))
	return true, nil
}

func (i *Inventory) Release(ctx context.Context, eventID, tierID string, quantity int) error {
	if quantity <= 0 {
		return models.ErrInvalidQuantity
	}
	if err := releaseScript.Run(ctx, i.Client, []string{stockKey(eventID, tierID)}, quantity).Err(); err != nil {
		return fmt.Errorf("redis release: %w", err)
	}
	return nil
}

// SetStock seeds or overwrites a tier counter.
func (i *Inventory) SetStock(ctx context.Context, eventID, tierID string, stock int) error {
	if err := i.Client.Set(ctx, stockKey(eventID, tierID), stock, 0).Err(); err != nil {
		return fmt.Errorf("redis set stock: %w", err)
	}
	i.Logger.Info("REDIS", fmt.Sprintf("Stock for %s/%s set to %d", eventID, tierID, stock))
	return nil
}

// Available returns tracked=false for a tier with no counter.
func (i *Inventory) Available(ctx context.Context, eventID, tierID string) (int, bool, error) {
	val, err := i.Client.Get(ctx, stockKey(eventID, tierID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	} else if err != nil {
		return 0, false, fmt.Errorf("redis get stock: %w", err)
	}

	stock, err := strconv.Atoi(val)
	if err != nil {
		return 0, true, fmt.Errorf("corrupt stock value %q: %w", val, err)
	}
	return stock, true, nil
}
