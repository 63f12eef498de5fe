package tibia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Validator — то, что умеет проверять персонажа по имени.
// Реализуется Client и CachedValidator.
type Validator interface {
	ValidateCharacter(ctx context.Context, name string) (*Character, error)
}

// Персонажи меняют мир редко, час кэша достаточно.
const defaultCacheTTL = time.Hour

// Маркер отрицательного результата, чтобы не долбить API несуществующими именами.
const notFoundMarker = "!notfound"

// CachedValidator кэширует ответы TibiaData в Redis. Ошибки Redis не фатальны:
// при недоступном кэше запрос уходит напрямую в API.
type CachedValidator struct {
	inner  Validator
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedValidator(inner Validator, rdb *redis.Client, logger *slog.Logger) *CachedValidator {
	return &CachedValidator{
		inner:  inner,
		rdb:    rdb,
		ttl:    defaultCacheTTL,
		logger: logger,
	}
}

func cacheKey(name string) string {
	return fmt.Sprintf("tibia:character:%s", strings.ToLower(strings.TrimSpace(name)))
}

func (v *CachedValidator) ValidateCharacter(ctx context.Context, name string) (*Character, error) {
	key := cacheKey(name)

	cached, err := v.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		if cached == notFoundMarker {
			return nil, ErrCharacterNotFound
		}
		var character Character
		if err := json.Unmarshal([]byte(cached), &character); err == nil {
			return &character, nil
		}
		// Битое значение в кэше: игнорируем и перезапишем свежим.
	case !errors.Is(err, redis.Nil):
		v.logger.Warn("tibia cache read failed", slog.String("key", key), slog.Any("error", err))
	}

	character, err := v.inner.ValidateCharacter(ctx, name)
	if err != nil {
		if errors.Is(err, ErrCharacterNotFound) {
			v.store(ctx, key, notFoundMarker)
		}
		return nil, err
	}

	if data, err := json.Marshal(character); err == nil {
		v.store(ctx, key, string(data))
	}
	return character, nil
}

func (v *CachedValidator) store(ctx context.Context, key, value string) {
	if err := v.rdb.Set(ctx, key, value, v.ttl).Err(); err != nil {
		v.logger.Warn("tibia cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}
