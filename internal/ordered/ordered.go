// Package ordered traverses the registry's interned-name bookkeeping
// in deterministic order, so that diagnostic logging of one
// translation run reads the same on every run instead of following
// Go's randomized map order.
package ordered

import "sort"

// RangeNames calls fn with each qname/avroName pair in interned,
// visiting qname keys in sorted order.
func RangeNames(interned map[string]string, fn func(qname, avroName string)) {
	keys := make([]string, 0, len(interned))
	for k := range interned {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fn(k, interned[k])
	}
}
