package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/otpraat/internal/model"
)

// Cache stores parsed tableaux. Stored tableaux are shared between callers and
// must not be modified.
type Cache interface {
	Get(key string) (*model.Tableau, bool)
	Set(key string, value *model.Tableau, ttl time.Duration)
	Delete(key string)
	Clear()
}

// CacheKey generates a cache key from raw tableau file content
func CacheKey(content []byte) string {
	hash := sha256.Sum256(content)
	return "otpraat:v1:" + hex.EncodeToString(hash[:])
}

// Nop is a Cache that never stores anything
type Nop struct{}

func (Nop) Get(string) (*model.Tableau, bool) { return nil, false }

func (Nop) Set(string, *model.Tableau, time.Duration) {}

func (Nop) Delete(string) {}

func (Nop) Clear() {}
