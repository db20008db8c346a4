package auth

import (
	"fmt"
	"sync"
	"time"
)

// PermissionCache 权限判定结果缓存,条目按 TTL 过期
type PermissionCache struct {
	cache *sync.Map
	ttl   time.Duration
}

// cacheEntry 缓存条目
type cacheEntry struct {
	allowed   bool
	expiresAt time.Time
}

// NewPermissionCache 创建权限缓存
func NewPermissionCache(ttl time.Duration) *PermissionCache {
	return &PermissionCache{
		cache: &sync.Map{},
		ttl:   ttl,
	}
}

// permissionKey 生成缓存 key
func permissionKey(userID, relation, objectType, objectID string) string {
	return fmt.Sprintf("user:%s#%s@%s:%s", userID, relation, objectType, objectID)
}

// Get 获取缓存,过期条目视为未命中并删除
func (c *PermissionCache) Get(key string) (bool, bool) {
	val, found := c.cache.Load(key)
	if !found {
		return false, false
	}

	entry := val.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.cache.Delete(key)
		return false, false
	}

	return entry.allowed, true
}

// Set 设置缓存
func (c *PermissionCache) Set(key string, allowed bool) {
	c.cache.Store(key, &cacheEntry{
		allowed:   allowed,
		expiresAt: time.Now().Add(c.ttl),
	})
}

// Invalidate 删除单个条目
func (c *PermissionCache) Invalidate(key string) {
	c.cache.Delete(key)
}

// Clear 清空缓存
func (c *PermissionCache) Clear() {
	c.cache.Range(func(key, value interface{}) bool {
		c.cache.Delete(key)
		return true
	})
}
