package cache

import (
	"fmt"

	"github.com/go-redis/redis/v7"
)

const oneHour int = 3600

// Expire1HR - 1 hour
const Expire1HR int = oneHour

// Expire18HR - 18 hours
const Expire18HR int = oneHour * 18

// Expire24HR - 24 hours
const Expire24HR int = oneHour * 24

// Cache redis cache
type Cache struct {
	Client *redis.Client
}

// Config holds the redis connection settings
type Config struct {
	Host     string
	Port     string
	Password string
}

// New create new cache
func New(config *Config) *Cache {
	cache := &Cache{}
	cache.Client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", config.Host, config.Port),
		Password: config.Password,
	})
	return cache
}

// Close cache
func (c *Cache) Close() error {
	return c.Client.Close()
}

// GetValue - get value string by key
func (c *Cache) GetValue(key string) (string, error) {
	val, err := c.Client.Get(key).Result()
	if err != nil {
		return "", err
	}
	return val, nil
}

// SetValue - set value string by key
func (c *Cache) SetValue(key string, val string) error {
	return c.Client.Set(key, val, 0).Err()
}

// ExpireKey - set a redis key to expire
func (c *Cache) ExpireKey(key string, ttl int) {
	c.Client.Do("EXPIRE", key, fmt.Sprintf("%v", ttl))
}
