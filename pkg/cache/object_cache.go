// Copyright 2025 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"container/list"
	"path"
	"sync"
)

// ObjectCache is an LRU cache of fetched log objects keyed by bucket and key,
// sized in bytes. It keeps repeated passes over the same build log (line
// counting, re-reads) from re-fetching the object.
type ObjectCache struct {
	mu       sync.Mutex
	capacity int
	size     int
	ll       *list.List
	items    map[string]*list.Element
}

type cacheEntry struct {
	key  string
	data []byte
}

// NewObjectCache creates a cache with capacity in bytes.
func NewObjectCache(capacityBytes int) *ObjectCache {
	if capacityBytes <= 0 {
		capacityBytes = 1
	}
	return &ObjectCache{
		capacity: capacityBytes,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
	}
}

func makeKey(bucket, key string) string {
	return path.Join(bucket, key)
}

// Get returns cached object bytes if present.
func (c *ObjectCache) Get(bucket, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[makeKey(bucket, key)]; ok {
		c.ll.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry)
		return entry.data, true
	}
	return nil, false
}

// Set adds or updates a cache entry.
func (c *ObjectCache) Set(bucket, key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := makeKey(bucket, key)
	if elem, ok := c.items[k]; ok {
		entry := elem.Value.(*cacheEntry)
		c.size -= len(entry.data)
		entry.data = append(entry.data[:0], data...)
		c.size += len(entry.data)
		c.ll.MoveToFront(elem)
		c.evictIfNeeded()
		return
	}
	copyData := append([]byte(nil), data...)
	entry := &cacheEntry{key: k, data: copyData}
	elem := c.ll.PushFront(entry)
	c.items[k] = elem
	c.size += len(copyData)
	c.evictIfNeeded()
}

// Invalidate drops a cached object, if present.
func (c *ObjectCache) Invalidate(bucket, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[makeKey(bucket, key)]; ok {
		entry := elem.Value.(*cacheEntry)
		delete(c.items, entry.key)
		c.ll.Remove(elem)
		c.size -= len(entry.data)
	}
}

func (c *ObjectCache) evictIfNeeded() {
	for c.size > c.capacity && c.ll.Len() > 0 {
		elem := c.ll.Back()
		entry := elem.Value.(*cacheEntry)
		delete(c.items, entry.key)
		c.ll.Remove(elem)
		c.size -= len(entry.data)
	}
}
