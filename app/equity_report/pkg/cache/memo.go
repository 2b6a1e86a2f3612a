// Package cache 显式的记忆化缓存：按 key 缓存生产函数的结果，支持主动失效。
package cache

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Memo 并发安全的记忆化缓存。同一 key 的并发调用共享一次生产，错误结果不缓存。
// 生产期间发生的 Invalidate 或 Purge 会使这次结果不落入缓存
type Memo[V any] struct {
	mu     sync.RWMutex
	values map[string]V
	gens   map[string]uint64
	epoch  uint64
	group  singleflight.Group
}

// NewMemo 创建缓存
func NewMemo[V any]() *Memo[V] {
	return &Memo[V]{values: make(map[string]V), gens: make(map[string]uint64)}
}

// Get 命中直接返回，否则调用 producer 并缓存结果
func (m *Memo[V]) Get(key string, producer func() (V, error)) (V, error) {
	m.mu.RLock()
	v, ok := m.values[key]
	m.mu.RUnlock()
	if ok {
		return v, nil
	}

	res, err, _ := m.group.Do(key, func() (any, error) {
		m.mu.RLock()
		v, ok := m.values[key]
		m.mu.RUnlock()
		if ok {
			return v, nil
		}

		m.mu.RLock()
		epoch, gen := m.epoch, m.gens[key]
		m.mu.RUnlock()

		v, err := producer()
		if err != nil {
			return v, err
		}
		m.mu.Lock()
		if m.epoch == epoch && m.gens[key] == gen {
			m.values[key] = v
		}
		m.mu.Unlock()
		return v, nil
	})
	v, _ = res.(V)
	return v, err
}

// Peek 只读查询，不触发生产
func (m *Memo[V]) Peek(key string) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Invalidate 删除指定 key
func (m *Memo[V]) Invalidate(key string) {
	m.mu.Lock()
	delete(m.values, key)
	m.gens[key]++
	m.mu.Unlock()
	m.group.Forget(key)
}

// Purge 清空缓存
func (m *Memo[V]) Purge() {
	m.mu.Lock()
	m.values = make(map[string]V)
	m.gens = make(map[string]uint64)
	m.epoch++
	m.mu.Unlock()
}

// Len 缓存条目数
func (m *Memo[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
