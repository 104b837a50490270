package cache

import (
	"context"
	"sync"
	"time"

	"btc-price-service/internal/domain/interfaces"
)

// cacheItem representa un elemento en el cache con su valor y tiempo de expiración
type cacheItem struct {
	value     string
	expiresAt time.Time
}

func (item *cacheItem) isExpired(now time.Time) bool {
	return !now.Before(item.expiresAt)
}

// MemoryCache implementa la interfaz Cache usando memoria local.
// La expiración es perezosa: se evalúa en Get y se purga en Set.
type MemoryCache struct {
	items map[string]*cacheItem
	mu    sync.RWMutex
	now   func() time.Time
}

// NewMemoryCache crea una nueva instancia de cache en memoria
func NewMemoryCache() interfaces.Cache {
	return newMemoryCache(time.Now)
}

func newMemoryCache(now func() time.Time) *MemoryCache {
	return &MemoryCache{
		items: make(map[string]*cacheItem),
		now:   now,
	}
}

// Get obtiene un valor del cache
func (c *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		return "", ErrKeyNotFound
	}

	if item.isExpired(c.now()) {
		c.evictExpired(key, item)
		return "", ErrKeyExpired
	}

	return item.value, nil
}

// evictExpired borra key solo si sigue apuntando al item vencido que se leyó;
// un Set concurrente entre RUnlock y Lock no se pierde.
func (c *MemoryCache) evictExpired(key string, seen *cacheItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if current, ok := c.items[key]; ok && current == seen {
		delete(c.items, key)
	}
}

// Set almacena un valor con TTL. Un TTL <= 0 no almacena nada.
func (c *MemoryCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, item := range c.items {
		if item.isExpired(now) {
			delete(c.items, k)
		}
	}

	if ttl <= 0 {
		delete(c.items, key)
		return nil
	}

	c.items[key] = &cacheItem{
		value:     value,
		expiresAt: now.Add(ttl),
	}

	return nil
}

// Delete elimina un valor del cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	return nil
}

// Ping siempre responde: la memoria local no tiene conexión que verificar
func (c *MemoryCache) Ping(ctx context.Context) error {
	return nil
}

// Size retorna el número de elementos en el cache (incluye expirados no purgados)
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
