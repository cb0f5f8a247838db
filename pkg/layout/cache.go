package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/blake2b"

	"github.com/siliconforge/edacore/pkg/model"
)

// ContentHash computes a blake2b-256 digest over sm's pre-placement
// structural shape: component names, kinds, declared dimensions and MOS
// terminals, and adjacency. Two SubModules with the same hash are
// structurally interchangeable for placement purposes, which makes the
// hash a safe cross-process cache key for CachedPlacement (spec §5's
// "memoizes the first placement of each sub-module type", extended here
// to survive across runs rather than just within one).
func ContentHash(sm *model.SubModule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "module:%s\n", sm.ModuleName)

	names := make([]string, 0, len(sm.Components))
	for n := range sm.Components {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		c := sm.Components[n]
		fmt.Fprintf(&b, "c:%s:%s:%dx%d\n", n, c.Kind, c.Width, c.Height)
		if c.MOS != nil {
			fmt.Fprintf(&b, "  mos:%s:%s:%s\n", c.MOS.Drain, c.MOS.Source, c.MOS.Gate)
		}
		if c.Sub != nil {
			fmt.Fprintf(&b, "  sub:%s\n", c.ModuleName)
		}
	}
	for _, n := range sortedMapKeys(sm.InMap) {
		fmt.Fprintf(&b, "in:%s:%s\n", n, strings.Join(sm.InMap[n], ","))
	}
	for _, n := range sortedMapKeys(sm.OutMap) {
		fmt.Fprintf(&b, "out:%s:%s\n", n, strings.Join(sm.OutMap[n], ","))
	}

	sum := blake2b.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", sum)
}

func sortedMapKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CachedPlacement is the serializable result of placing+annealing a
// SubModule: every component's final position plus the module's overall
// bounding box. It deliberately excludes routing (nets/segments/vias),
// which depends on the parent's occupancy grid and so is never shareable
// across instantiation sites the way placement is.
type CachedPlacement struct {
	Width, Height int
	Positions     map[string][2]int
}

// SnapshotPlacement captures sm's current component positions as a
// CachedPlacement.
func SnapshotPlacement(sm *model.SubModule, width, height int) *CachedPlacement {
	cp := &CachedPlacement{Width: width, Height: height, Positions: make(map[string][2]int, len(sm.Components))}
	for name, c := range sm.Components {
		cp.Positions[name] = [2]int{c.X, c.Y}
	}
	return cp
}

// Apply writes a CachedPlacement's positions back onto sm's components,
// skipping any name the cached snapshot doesn't know about (a structural
// hash collision would be a bug, not a reason to crash the pipeline).
func (cp *CachedPlacement) Apply(sm *model.SubModule) {
	for name, pos := range cp.Positions {
		if c, ok := sm.Components[name]; ok {
			c.X, c.Y = pos[0], pos[1]
		}
	}
}

// Cache is the placement memoization contract. The in-process Engine
// always consults an in-memory map first (spec §5: single-threaded,
// write-once-per-type); Cache is the optional second tier that lets
// placement survive across process restarts.
type Cache interface {
	Load(key string) (*CachedPlacement, bool)
	Store(key string, cp *CachedPlacement)
}

// NullCache never has anything cached; it is the default when no
// distributed cache is configured.
type NullCache struct{}

func (NullCache) Load(string) (*CachedPlacement, bool) { return nil, false }
func (NullCache) Store(string, *CachedPlacement)       {}

// RedisCache persists CachedPlacement values in Redis, keyed by content
// hash, so that separate edacore invocations over the same library of
// sub-modules skip re-annealing a type they've already placed. Entries
// expire after ttl so a stale cache self-heals if the placement
// algorithm's tunables ever change without a corresponding key-space
// bump.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache dials addr (e.g. "localhost:6379") and returns a Cache
// backed by it. Connectivity is not verified here; a Load against an
// unreachable server fails open (treated as a cache miss).
func NewRedisCache(addr string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

func (r *RedisCache) Load(key string) (*CachedPlacement, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		return nil, false
	}
	var cp CachedPlacement
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, false
	}
	return &cp, true
}

func (r *RedisCache) Store(key string, cp *CachedPlacement) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := json.Marshal(cp)
	if err != nil {
		return
	}
	r.client.Set(ctx, redisKey(key), data, r.ttl)
}

func redisKey(contentHash string) string {
	return "edacore:placement:" + contentHash
}
