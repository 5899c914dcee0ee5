// Package embedded is an in-process engine gateway on bleve mem-only indexes.
// It serves tests, local development and single-node deployments without a cluster.
package embedded

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"go.uber.org/zap"

	"github.com/roxby/tubesearch/internal/engine"
)

// ScriptFunc evaluates an update script against an existing source and returns the new source.
type ScriptFunc func(source engine.Document, params map[string]any) (engine.Document, error)

// SortFunc computes the numeric sort key of a script sort for one source.
type SortFunc func(source engine.Document, params map[string]any) float64

type memIndex struct {
	name     string
	spec     engine.IndexSpec
	idx      bleve.Index
	tr       translator
	docs     map[string]engine.Document
	versions map[string]int64
}

// Engine implements engine.Gateway in process. A single mutex serializes
// writes, so every update including scripted upserts is atomic.
type Engine struct {
	mu      sync.RWMutex
	indices map[string]*memIndex
	scripts map[string]ScriptFunc
	sorts   map[string]SortFunc
	journal *journal
	logger  *zap.Logger
	closed  bool

	journalDir string
}

var _ engine.Gateway = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithJournal persists every write to a write-ahead log in dir and replays it on Open.
func WithJournal(dir string) Option {
	return func(e *Engine) { e.journalDir = dir }
}

// WithScript registers an update script by its stored id.
func WithScript(id string, fn ScriptFunc) Option {
	return func(e *Engine) { e.scripts[id] = fn }
}

// WithSortScript registers a sort script by its stored id.
func WithSortScript(id string, fn SortFunc) Option {
	return func(e *Engine) { e.sorts[id] = fn }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Open creates an engine and replays its journal when one is configured.
func Open(opts ...Option) (*Engine, error) {
	e := &Engine{
		indices: make(map[string]*memIndex),
		scripts: make(map[string]ScriptFunc),
		sorts:   make(map[string]SortFunc),
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(e)
	}
	if e.journalDir == "" {
		return e, nil
	}

	j, err := openJournal(e.journalDir)
	if err != nil {
		return nil, err
	}
	n, err := j.replay(e.apply)
	if err != nil {
		_ = j.close()
		return nil, err
	}
	e.journal = j
	e.logger.Info("Embedded engine journal replayed",
		zap.String("dir", e.journalDir),
		zap.Int("entries", n),
		zap.Int("indices", len(e.indices)),
	)
	return e, nil
}

// Ping implements engine.Pinger.
func (e *Engine) Ping(_ context.Context) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return &engine.Error{Op: engine.OpPing, Err: engine.ErrUnavailable}
	}
	return nil
}

// IndexExists implements engine.IndexManager.
func (e *Engine) IndexExists(_ context.Context, name string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.indices[name]
	return ok, nil
}

// CreateIndex implements engine.IndexManager.
func (e *Engine) CreateIndex(_ context.Context, name string, spec engine.IndexSpec) error {
	if name == "" {
		return &engine.Error{Op: engine.OpCreateIndex, Err: fmt.Errorf("index name is required: %w", engine.ErrInvalidRequest)}
	}
	if err := spec.Validate(); err != nil {
		return &engine.Error{Op: engine.OpCreateIndex, Index: name, Err: err}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.indices[name]; ok {
		return &engine.Error{Op: engine.OpCreateIndex, Index: name, Err: engine.ErrIndexExists}
	}
	en := entry{Op: entryCreateIndex, Index: name, Spec: &spec}
	if err := e.apply(en); err != nil {
		return &engine.Error{Op: engine.OpCreateIndex, Index: name, Err: err}
	}
	if err := e.record(engine.OpCreateIndex, en); err != nil {
		return &engine.Error{Op: engine.OpCreateIndex, Index: name, Err: err}
	}
	return nil
}

// DeleteIndex implements engine.IndexManager.
func (e *Engine) DeleteIndex(_ context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.indices[name]; !ok {
		return &engine.Error{Op: engine.OpDeleteIndex, Index: name, Err: engine.ErrIndexNotFound}
	}
	en := entry{Op: entryDeleteIndex, Index: name}
	if err := e.apply(en); err != nil {
		return &engine.Error{Op: engine.OpDeleteIndex, Index: name, Err: err}
	}
	if err := e.record(engine.OpDeleteIndex, en); err != nil {
		return &engine.Error{Op: engine.OpDeleteIndex, Index: name, Err: err}
	}
	return nil
}

// GetMapping implements engine.IndexManager.
func (e *Engine) GetMapping(_ context.Context, name string) (engine.Mapping, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	mi, err := e.index(engine.OpGetMapping, name)
	if err != nil {
		return engine.Mapping{}, err
	}
	return mi.spec.Mapping, nil
}

// Refresh implements engine.IndexManager. Writes are visible immediately, so it only checks existence.
func (e *Engine) Refresh(_ context.Context, name string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, err := e.index(engine.OpRefresh, name)
	return err
}

// Close releases every index and the journal.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	var firstErr error
	for _, mi := range e.indices {
		if err := mi.idx.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close index %s: %w", mi.name, err)
		}
	}
	if e.journal != nil {
		if err := e.journal.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// index looks up an index; the caller holds the lock.
func (e *Engine) index(op, name string) (*memIndex, error) {
	mi, ok := e.indices[name]
	if !ok {
		return nil, &engine.Error{Op: op, Index: name, Err: engine.ErrIndexNotFound}
	}
	return mi, nil
}

// apply mutates state for one journal entry. It is used both by live writes and by replay;
// the caller holds the write lock (or is Open, before the engine is shared).
func (e *Engine) apply(en entry) error {
	switch en.Op {
	case entryCreateIndex:
		if en.Spec == nil {
			return fmt.Errorf("create index entry without spec: %w", engine.ErrInvalidRequest)
		}
		im, err := buildMapping(*en.Spec)
		if err != nil {
			return err
		}
		idx, err := bleve.NewMemOnly(im)
		if err != nil {
			return fmt.Errorf("open bleve index: %w", err)
		}
		e.indices[en.Index] = &memIndex{
			name:     en.Index,
			spec:     *en.Spec,
			idx:      idx,
			tr:       translator{m: en.Spec.Mapping},
			docs:     make(map[string]engine.Document),
			versions: make(map[string]int64),
		}
	case entryDeleteIndex:
		if mi, ok := e.indices[en.Index]; ok {
			_ = mi.idx.Close()
			delete(e.indices, en.Index)
		}
	case entryPut:
		mi, ok := e.indices[en.Index]
		if !ok {
			return engine.ErrIndexNotFound
		}
		if err := mi.idx.Index(en.ID, indexable(mi.spec.Mapping, en.Doc)); err != nil {
			return fmt.Errorf("index document %s: %w", en.ID, err)
		}
		mi.docs[en.ID] = en.Doc
		mi.versions[en.ID]++
	case entryDelete:
		mi, ok := e.indices[en.Index]
		if !ok {
			return engine.ErrIndexNotFound
		}
		if err := mi.idx.Delete(en.ID); err != nil {
			return fmt.Errorf("delete document %s: %w", en.ID, err)
		}
		delete(mi.docs, en.ID)
		mi.versions[en.ID]++
	default:
		return fmt.Errorf("unknown journal op %q: %w", en.Op, engine.ErrInvalidRequest)
	}
	return nil
}

// record appends an applied entry to the journal, if any.
func (e *Engine) record(op string, en entry) error {
	if e.journal == nil {
		return nil
	}
	if err := e.journal.append(en); err != nil {
		e.logger.Error("Journal append failed", zap.String("op", op), zap.String("index", en.Index), zap.Error(err))
		return err
	}
	return nil
}

// normalize deep-copies a document through JSON so stored sources hold only
// JSON value types, the same shapes a remote engine returns.
func normalize(doc engine.Document) (engine.Document, error) {
	if doc == nil {
		return engine.Document{}, nil
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w: %w", engine.ErrInvalidRequest, err)
	}
	var out engine.Document
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

func clone(doc engine.Document) engine.Document {
	if doc == nil {
		return nil
	}
	out, err := normalize(doc)
	if err != nil {
		return nil
	}
	return out
}
