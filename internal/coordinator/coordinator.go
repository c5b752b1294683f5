package coordinator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"kvmeta/internal/catalog"
	"kvmeta/internal/meta"
)

const (
	// DefaultWait bounds Submit when the request carries no timeout.
	DefaultWait = 10 * time.Second
	// DefaultQueueSize is the capacity of the operation queue.
	DefaultQueueSize = 64
)

// Config holds the tunables of a Coordinator.
type Config struct {
	// NodeID prefixes log lines.
	NodeID string
	// DefaultWait replaces an absent per-request timeout. Zero means
	// DefaultWait.
	DefaultWait time.Duration
	// QueueSize is the operation queue capacity. Zero means
	// DefaultQueueSize.
	QueueSize int
}

type pending struct {
	op   meta.Operation
	done chan outcome
}

type outcome struct {
	res meta.OperationResult
	err error
}

// Coordinator applies collection metadata operations to a catalog store.
type Coordinator struct {
	id          string
	store       catalog.Store
	defaultWait time.Duration

	ops   chan *pending
	stopc chan struct{}
	donec chan struct{}

	closeOnce sync.Once

	// seq is touched only by the apply goroutine.
	seq uint64
}

// New starts a coordinator over the given store. Callers must Close it to
// stop the apply goroutine.
func New(cfg Config, store catalog.Store) *Coordinator {
	if cfg.DefaultWait <= 0 {
		cfg.DefaultWait = DefaultWait
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	c := &Coordinator{
		id:          cfg.NodeID,
		store:       store,
		defaultWait: cfg.DefaultWait,
		ops:         make(chan *pending, cfg.QueueSize),
		stopc:       make(chan struct{}),
		donec:       make(chan struct{}),
	}
	go c.run()
	return c
}

// Submit queues the operation and waits for it to apply. wait overrides the
// default timeout when non-nil; the value passes through as given, a zero
// wait times out immediately. On ErrTimeout the operation stays queued and
// may still apply.
func (c *Coordinator) Submit(ctx context.Context, op meta.Operation, wait *time.Duration) (meta.OperationResult, error) {
	limit := c.defaultWait
	if wait != nil {
		limit = *wait
	}
	timer := time.NewTimer(limit)
	defer timer.Stop()

	p := &pending{op: op, done: make(chan outcome, 1)}

	select {
	case c.ops <- p:
	case <-timer.C:
		return meta.OperationResult{}, fmt.Errorf("%w (queue full after %s)", ErrTimeout, limit)
	case <-c.stopc:
		return meta.OperationResult{}, ErrStopped
	case <-ctx.Done():
		return meta.OperationResult{}, ctx.Err()
	}

	select {
	case out := <-p.done:
		return out.res, out.err
	case <-timer.C:
		return meta.OperationResult{}, fmt.Errorf("%w (%s)", ErrTimeout, limit)
	case <-c.stopc:
		// The apply goroutine may have finished this one while stopping.
		select {
		case out := <-p.done:
			return out.res, out.err
		default:
		}
		return meta.OperationResult{}, ErrStopped
	case <-ctx.Done():
		return meta.OperationResult{}, ctx.Err()
	}
}

// ListCollections returns all collection names.
func (c *Coordinator) ListCollections(ctx context.Context) ([]string, error) {
	return c.store.ListCollections()
}

// ListAliases returns every alias binding.
func (c *Coordinator) ListAliases(ctx context.Context) ([]meta.AliasBinding, error) {
	return c.store.ListAliases()
}

// CollectionAliases returns the alias names bound to one collection.
func (c *Coordinator) CollectionAliases(ctx context.Context, collection string) ([]string, error) {
	return c.store.CollectionAliases(collection)
}

// GetCollectionInfo returns the read-side view of one collection.
func (c *Coordinator) GetCollectionInfo(ctx context.Context, collection string) (meta.CollectionInfo, error) {
	rec, err := c.store.GetCollection(collection)
	if err != nil {
		return meta.CollectionInfo{}, err
	}
	return meta.CollectionInfo{
		Status:    meta.StatusReady,
		Config:    rec.Config,
		Version:   rec.Version,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

// Close stops the apply goroutine and waits for it to exit. Pending
// submitters get ErrStopped.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		close(c.stopc)
		<-c.donec
	})
}

func (c *Coordinator) run() {
	defer close(c.donec)
	for {
		select {
		case p := <-c.ops:
			p.done <- c.apply(p.op)
		case <-c.stopc:
			return
		}
	}
}

func (c *Coordinator) apply(op meta.Operation) outcome {
	start := time.Now()
	if err := c.applyOperation(op); err != nil {
		log.Printf("[%s] %s failed: %v", c.id, op.Kind(), err)
		return outcome{err: err}
	}
	c.seq++
	log.Printf("[%s] applied %s seq=%d in %s", c.id, op.Kind(), c.seq, time.Since(start))
	return outcome{res: meta.OperationResult{Applied: true, Seq: c.seq}}
}

func (c *Coordinator) applyOperation(op meta.Operation) error {
	now := time.Now().UTC()
	switch o := op.(type) {
	case meta.CreateCollectionOperation:
		cfg := o.Config.Normalized()
		if err := cfg.Validate(); err != nil {
			return err
		}
		return c.store.CreateCollection(catalog.Collection{
			Name:      o.CollectionName,
			Config:    cfg,
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		})
	case meta.UpdateCollectionOperation:
		return c.store.UpdateCollection(o.CollectionName, func(rec *catalog.Collection) error {
			merged := o.Diff.Apply(rec.Config)
			if err := merged.Validate(); err != nil {
				return err
			}
			rec.Config = merged
			rec.Version++
			rec.UpdatedAt = now
			return nil
		})
	case meta.DeleteCollectionOperation:
		return c.store.DeleteCollection(o.CollectionName)
	case meta.ChangeAliasesOperation:
		return c.store.ChangeAliases(o.Actions)
	default:
		return fmt.Errorf("unknown operation %T", op)
	}
}
