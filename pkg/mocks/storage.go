package mocks

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"

	"github.com/user/framekit/pkg/ports"
)

// ErrNotStored is returned by Storage for unknown references.
var ErrNotStored = errors.New("not stored")

// Storage is an in-memory implementation of ports.Storage.
type Storage struct {
	WriteFunc func(ctx context.Context, name string, data []byte) (string, error)

	mu      sync.Mutex
	objects map[string][]byte

	// Recorded calls for verification
	WriteCalls  []string
	RemoveCalls []string
}

// NewStorage creates an empty Storage.
func NewStorage() *Storage {
	return &Storage{objects: make(map[string][]byte)}
}

// Put stores data under ref without recording a call.
func (m *Storage) Put(ref string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[ref] = data
}

// Get returns the data stored under ref.
func (m *Storage) Get(ref string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[ref]
	return data, ok
}

// Refs returns all stored references, sorted.
func (m *Storage) Refs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	refs := make([]string, 0, len(m.objects))
	for r := range m.objects {
		refs = append(refs, r)
	}
	sort.Strings(refs)
	return refs
}

func (m *Storage) Write(ctx context.Context, name string, data []byte) (string, error) {
	m.mu.Lock()
	m.WriteCalls = append(m.WriteCalls, name)
	m.mu.Unlock()
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, name, data)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.Put(name, append([]byte(nil), data...))
	return name, nil
}

func (m *Storage) Read(ctx context.Context, ref string) ([]byte, error) {
	data, ok := m.Get(ref)
	if !ok {
		return nil, fmt.Errorf("%s: %w", ref, ErrNotStored)
	}
	return data, nil
}

func (m *Storage) Exists(ctx context.Context, ref string) (bool, error) {
	_, ok := m.Get(ref)
	return ok, nil
}

func (m *Storage) Remove(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RemoveCalls = append(m.RemoveCalls, ref)
	delete(m.objects, ref)
	return nil
}

var _ ports.Storage = (*Storage)(nil)

// ImageGetter is a mock implementation of ports.ImageGetter.
type ImageGetter struct {
	GetImageFunc func(ctx context.Context, ref string, maxSize ports.Size) (image.Image, error)

	mu    sync.Mutex
	Calls []GetImageCall
}

// GetImageCall records a call to GetImage.
type GetImageCall struct {
	Ref     string
	MaxSize ports.Size
}

func (m *ImageGetter) GetImage(ctx context.Context, ref string, maxSize ports.Size) (image.Image, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, GetImageCall{Ref: ref, MaxSize: maxSize})
	m.mu.Unlock()
	if m.GetImageFunc != nil {
		return m.GetImageFunc(ctx, ref, maxSize)
	}
	return nil, fmt.Errorf("%s: %w", ref, ErrNotStored)
}

var _ ports.ImageGetter = (*ImageGetter)(nil)
