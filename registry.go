package thicket

import "reflect"

// Registry memoizes the animatable attribute keys per node kind and shape
// type. Each Renderer owns one, so independent renderers share nothing.
type Registry struct {
	keys map[registryKey][]string
}

type registryKey struct {
	kind  NodeKind
	shape reflect.Type
}

// Keys returns the numeric attributes ReplaceAttrs and transitions consider
// for n, computing them on first use.
func (r *Registry) Keys(n *Node) []string {
	k := registryKey{kind: n.Kind}
	if n.shape != nil {
		k.shape = reflect.TypeOf(n.shape)
	}
	if keys, ok := r.keys[k]; ok {
		return keys
	}
	if r.keys == nil {
		r.keys = make(map[registryKey][]string)
	}
	keys := computeAnimatableKeys(n)
	r.keys[k] = keys
	return keys
}

// Len returns the number of memoized entries.
func (r *Registry) Len() int { return len(r.keys) }
