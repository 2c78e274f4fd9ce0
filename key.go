package typedstorage

// AnyKey is a declared key with its value type erased. It is implemented
// only by [Key].
type AnyKey interface {
	Name() string

	decode(c Codec, text string) (any, error)
}

// Key names a stored value of type V.
type Key[V any] struct {
	name string
}

// NewKey returns a key named name holding values of type V, without
// registering it in a [Schema].
func NewKey[V any](name string) Key[V] {
	return Key[V]{name: name}
}

// Name returns the store key.
func (k Key[V]) Name() string {
	return k.name
}

func (k Key[V]) String() string {
	return k.name
}

func (k Key[V]) decode(c Codec, text string) (any, error) {
	var v V
	if err := c.Decode([]byte(text), &v); err != nil {
		return nil, err
	}
	return v, nil
}
