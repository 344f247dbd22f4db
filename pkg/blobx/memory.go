package blobx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

type memObject struct {
	data        []byte
	contentType string
}

// Memory keeps objects in a map.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]memObject)}
}

func (m *Memory) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("blobx: read %s: %w", key, err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("blobx: %s: short body: got %d bytes, want %d", key, len(data), size)
	}

	m.mu.Lock()
	m.objects[key] = memObject{data: data, contentType: contentType}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(_ context.Context, key string) (*Object, error) {
	if !ValidKey(key) {
		return nil, ErrInvalidKey
	}

	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	return &Object{
		Key:         key,
		ContentType: obj.contentType,
		Size:        int64(len(obj.data)),
		Body:        io.NopCloser(bytes.NewReader(obj.data)),
	}, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Keys lists stored keys in order. Tests use it to assert what was written.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
