package embedded

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/wal"

	"github.com/roxby/tubesearch/internal/engine"
)

type entryOp string

const (
	entryCreateIndex entryOp = "CREATE_INDEX"
	entryDeleteIndex entryOp = "DELETE_INDEX"
	entryPut         entryOp = "PUT"
	entryDelete      entryOp = "DELETE"
)

// entry is one journaled state change. Puts carry the full resulting source,
// so replay never re-runs scripts.
type entry struct {
	Op    entryOp           `json:"op"`
	Index string            `json:"index"`
	ID    string            `json:"id,omitempty"`
	Doc   engine.Document   `json:"doc,omitempty"`
	Spec  *engine.IndexSpec `json:"spec,omitempty"`
}

type journal struct {
	log  *wal.Log
	next uint64
}

func openJournal(dir string) (*journal, error) {
	log, err := wal.Open(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", dir, err)
	}
	last, err := log.LastIndex()
	if err != nil {
		_ = log.Close()
		return nil, fmt.Errorf("read journal index: %w", err)
	}
	return &journal{log: log, next: last + 1}, nil
}

// replay feeds every entry to fn in write order and returns the number applied.
func (j *journal) replay(fn func(entry) error) (int, error) {
	first, err := j.log.FirstIndex()
	if err != nil {
		return 0, fmt.Errorf("read journal index: %w", err)
	}
	last, err := j.log.LastIndex()
	if err != nil {
		return 0, fmt.Errorf("read journal index: %w", err)
	}
	if last == 0 {
		return 0, nil
	}

	n := 0
	for i := first; i <= last; i++ {
		data, err := j.log.Read(i)
		if err != nil {
			return n, fmt.Errorf("read journal entry %d: %w", i, err)
		}
		var en entry
		if err := json.Unmarshal(data, &en); err != nil {
			return n, fmt.Errorf("decode journal entry %d: %w", i, err)
		}
		if err := fn(en); err != nil {
			return n, fmt.Errorf("replay journal entry %d (%s %s): %w", i, en.Op, en.Index, err)
		}
		n++
	}
	return n, nil
}

func (j *journal) append(en entry) error {
	data, err := json.Marshal(en)
	if err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}
	if err := j.log.Write(j.next, data); err != nil {
		return fmt.Errorf("write journal entry %d: %w", j.next, err)
	}
	j.next++
	return nil
}

func (j *journal) close() error {
	if err := j.log.Close(); err != nil {
		return fmt.Errorf("close journal: %w", err)
	}
	return nil
}
