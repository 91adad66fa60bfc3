package repository

import (
	"context"
	"fmt"
	"hash/fnv"
	"maps"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/dxapi/pkg/metrics"
)

const (
	defaultShardCount            = 16
	defaultMetricsUpdateInterval = 5 * time.Second
	idSuffixLen                  = 24
)

var classPattern = regexp.MustCompile(`^[a-z]+$`)

type shard struct {
	mu      sync.RWMutex
	objects map[string]*Object
}

// ShardedStore is an in-memory Store split into independently locked shards.
type ShardedStore struct {
	shards                []*shard
	mask                  uint32
	shardCount            int
	count                 atomic.Int64
	metricsUpdateInterval time.Duration
	now                   func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

var _ Store = (*ShardedStore)(nil)

// NewShardedStore creates a store and starts its metrics updater, which
// runs until ctx is done or Close is called.
func NewShardedStore(ctx context.Context, opts ...Option) *ShardedStore {
	s := &ShardedStore{
		shardCount:            defaultShardCount,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		now:                   time.Now,
		stop:                  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	n := 1
	for n < s.shardCount {
		n <<= 1
	}
	s.shardCount = n
	s.mask = uint32(n - 1) //nolint:gosec // n is a small positive power of two
	s.shards = make([]*shard, n)
	for i := range s.shards {
		s.shards[i] = &shard{objects: make(map[string]*Object)}
	}

	metrics.UpdateStubObjects(0)
	go s.startMetricsUpdater(ctx)
	return s
}

// Close stops the metrics updater.
func (s *ShardedStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

func (s *ShardedStore) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return s.shards[h.Sum32()&s.mask]
}

// NewID returns a fresh ID of the form <class>-<24 hex chars>.
func NewID(class string) string {
	return class + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:idSuffixLen]
}

// Create stores a new open object.
func (s *ShardedStore) Create(_ context.Context, class string, in CreateInput) (Object, error) {
	if !classPattern.MatchString(class) {
		return Object{}, fmt.Errorf("%w: %q", ErrInvalidClass, class)
	}
	now := s.now()
	obj := &Object{
		ID:         NewID(class),
		Class:      class,
		Project:    in.Project,
		Name:       in.Name,
		State:      StateOpen,
		Tags:       dedupeTags(nil, in.Tags),
		Properties: maps.Clone(in.Properties),
		Details:    in.Details,
		Created:    now,
		Modified:   now,
	}
	if obj.Properties == nil {
		obj.Properties = map[string]string{}
	}

	sh := s.shardFor(obj.ID)
	sh.mu.Lock()
	sh.objects[obj.ID] = obj
	sh.mu.Unlock()
	s.count.Add(1)

	return clone(obj), nil
}

// Get returns a copy of the object.
func (s *ShardedStore) Get(_ context.Context, id string) (Object, error) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	obj, ok := sh.objects[id]
	if !ok {
		return Object{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return clone(obj), nil
}

// Update applies fn to a working copy and stores it when fn succeeds.
func (s *ShardedStore) Update(_ context.Context, id string, fn func(*Object) error) (Object, error) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	obj, ok := sh.objects[id]
	if !ok {
		return Object{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	work := clone(obj)
	if err := fn(&work); err != nil {
		return Object{}, err
	}
	// Identity fields are not updatable.
	work.ID, work.Class, work.Created = obj.ID, obj.Class, obj.Created
	work.Modified = s.now()
	sh.objects[id] = &work
	return clone(&work), nil
}

// Find scans all shards.
func (s *ShardedStore) Find(_ context.Context, f Filter) []Object {
	var out []Object
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, obj := range sh.objects {
			if matches(obj, f) {
				out = append(out, clone(obj))
			}
		}
		sh.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of objects.
func (s *ShardedStore) Count(_ context.Context) int {
	return int(s.count.Load())
}

func (s *ShardedStore) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(s.metricsUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			metrics.UpdateStubObjects(s.Count(ctx))
		}
	}
}

func matches(obj *Object, f Filter) bool {
	return (f.Class == "" || obj.Class == f.Class) &&
		(f.State == "" || obj.State == f.State) &&
		(f.Project == "" || obj.Project == f.Project)
}

func clone(obj *Object) Object {
	c := *obj
	c.Tags = slices.Clone(obj.Tags)
	c.Properties = maps.Clone(obj.Properties)
	return c
}

// AddTags appends tags not already present, keeping order.
func AddTags(obj *Object, tags []string) {
	obj.Tags = dedupeTags(obj.Tags, tags)
}

// RemoveTags drops the given tags.
func RemoveTags(obj *Object, tags []string) {
	obj.Tags = slices.DeleteFunc(obj.Tags, func(t string) bool { return slices.Contains(tags, t) })
}

func dedupeTags(existing, add []string) []string {
	out := slices.Clone(existing)
	for _, t := range add {
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// SetProperties sets or, for nil values, deletes properties.
func SetProperties(obj *Object, props map[string]*string) {
	if obj.Properties == nil {
		obj.Properties = map[string]string{}
	}
	for k, v := range props {
		if v == nil {
			delete(obj.Properties, k)
			continue
		}
		obj.Properties[k] = *v
	}
}

// CloseObject moves an open object to closed. Closing a closed object is a no-op.
func CloseObject(obj *Object) error {
	switch obj.State {
	case StateOpen, StateClosing:
		obj.State = StateClosed
		return nil
	case StateClosed:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidState, obj.State)
	}
}

// RequireOpen fails unless obj is open.
func RequireOpen(obj *Object) error {
	if obj.State != StateOpen {
		return fmt.Errorf("%w: %s is %s", ErrInvalidState, obj.ID, obj.State)
	}
	return nil
}
