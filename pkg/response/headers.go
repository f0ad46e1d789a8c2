package response

// Headers is an ordered header set. Keys keep the position of their first
// write; the last write of a key wins.
type Headers struct {
	keys   []string
	values map[string]string
}

// NewHeaders creates an empty header set
func NewHeaders() Headers {
	return Headers{values: make(map[string]string)}
}

// Set writes a header, overwriting any previous value for key
func (h *Headers) Set(key, value string) {
	if h.values == nil {
		h.values = make(map[string]string)
	}
	if _, exists := h.values[key]; !exists {
		h.keys = append(h.keys, key)
	}
	h.values[key] = value
}

// Get returns the value of key or an empty string
func (h Headers) Get(key string) string {
	return h.values[key]
}

// Lookup returns the value of key and whether it is set
func (h Headers) Lookup(key string) (string, bool) {
	v, ok := h.values[key]
	return v, ok
}

// Keys returns the header names in insertion order
func (h Headers) Keys() []string {
	keys := make([]string, len(h.keys))
	copy(keys, h.keys)
	return keys
}

// Len returns the number of distinct headers
func (h Headers) Len() int {
	return len(h.keys)
}

// Map returns a copy of the headers as a plain map
func (h Headers) Map() map[string]string {
	m := make(map[string]string, len(h.keys))
	for _, k := range h.keys {
		m[k] = h.values[k]
	}
	return m
}

// Clone returns an independent copy
func (h Headers) Clone() Headers {
	c := NewHeaders()
	for _, k := range h.keys {
		c.Set(k, h.values[k])
	}
	return c
}
