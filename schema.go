package typedstorage

import "fmt"

// Schema is the set of keys an application declares, each bound to
// the type of its value.
//
// Keys are meant to be declared once, during initialization. Define is
// not safe for concurrent use; the read methods are.
type Schema struct {
	keys  map[string]AnyKey
	names []string
}

// NewSchema returns an empty schema.
func NewSchema() *Schema {
	return &Schema{keys: map[string]AnyKey{}}
}

// Define declares name as holding values of type V and returns its key.
//
// It panics if name is already declared.
func Define[V any](s *Schema, name string) Key[V] {
	if _, ok := s.keys[name]; ok {
		panic(fmt.Sprintf("typedstorage: key %q defined twice", name))
	}

	key := NewKey[V](name)
	s.keys[name] = key
	s.names = append(s.names, name)
	return key
}

// Lookup returns the key declared under name.
func (s *Schema) Lookup(name string) (AnyKey, bool) {
	key, ok := s.keys[name]
	return key, ok
}

// Has reports whether name is declared.
func (s *Schema) Has(name string) bool {
	_, ok := s.keys[name]
	return ok
}

// Names returns the declared names in declaration order.
func (s *Schema) Names() []string {
	return append([]string(nil), s.names...)
}

// Keys returns the declared keys in declaration order.
func (s *Schema) Keys() []AnyKey {
	keys := make([]AnyKey, 0, len(s.names))
	for _, name := range s.names {
		keys = append(keys, s.keys[name])
	}
	return keys
}
