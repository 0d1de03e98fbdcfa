package state

import (
	"encoding/json"
	"fmt"
)

// KV is the storage collaborator boundary: plain keyed reads and writes
// with no transaction primitive of its own. Atomicity is the ledger's job;
// by the time anything is written here the block has already validated.
type KV interface {
	Get(key string) ([]byte, bool)
	Insert(key string, value []byte) error
	Delete(key string)
}

// MemKV is the in-process KV used to serve raw state queries.
type MemKV struct {
	m map[string][]byte
}

func NewMemKV() *MemKV {
	return &MemKV{m: map[string][]byte{}}
}

func (kv *MemKV) Get(key string) ([]byte, bool) {
	v, ok := kv.m[key]
	return v, ok
}

func (kv *MemKV) Insert(key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("empty key")
	}
	kv.m[key] = value
	return nil
}

func (kv *MemKV) Delete(key string) {
	delete(kv.m, key)
}

func (kv *MemKV) Len() int { return len(kv.m) }

// WriteTo exports the aggregate as one keyed record per entity. It is a
// full snapshot; callers rebuild the target from scratch each commit.
func (s *State) WriteTo(kv KV) error {
	put := func(key string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		return kv.Insert(key, b)
	}
	if err := put("meta/height", s.Height); err != nil {
		return err
	}
	if err := put("house", s.House); err != nil {
		return err
	}
	for addr, p := range s.Players {
		if err := put("player/"+addr, p); err != nil {
			return err
		}
	}
	for id, sess := range s.Sessions {
		if err := put(fmt.Sprintf("session/%d", id), sess); err != nil {
			return err
		}
	}
	for id, t := range s.Tournaments {
		if err := put(fmt.Sprintf("tournament/%d", id), t); err != nil {
			return err
		}
	}
	return nil
}
