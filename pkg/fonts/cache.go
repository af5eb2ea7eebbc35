package fonts

import (
	"os"
	"path/filepath"
	"sync"
)

// Parsed handles are shared by every Registry in the process, keyed by
// registration name and source.
var cache = struct {
	sync.Mutex
	m map[string]*Handle
}{m: make(map[string]*Handle)}

// ResetCache drops every cached handle. Tests use it to start from a clean
// process state.
func ResetCache() {
	cache.Lock()
	defer cache.Unlock()
	cache.m = make(map[string]*Handle)
}

func load(name, path string) (*Handle, error) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	key := name + "\x00" + path

	cache.Lock()
	h, ok := cache.m[key]
	cache.Unlock()
	if ok {
		return h, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return store(key, name, path, data)
}

func loadBytes(name, source string, data []byte) (*Handle, error) {
	key := name + "\x00" + source

	cache.Lock()
	h, ok := cache.m[key]
	cache.Unlock()
	if ok {
		return h, nil
	}
	return store(key, name, "", data)
}

func store(key, name, path string, data []byte) (*Handle, error) {
	h, err := NewHandle(name, path, data)
	if err != nil {
		return nil, err
	}
	cache.Lock()
	defer cache.Unlock()
	if prev, ok := cache.m[key]; ok {
		return prev, nil
	}
	cache.m[key] = h
	return h, nil
}
