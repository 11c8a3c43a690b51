package engine

import (
	"sort"

	"github.com/zyedidia/generic/mapset"
)

// Inventory is a set of string flags. The zero value is not usable; build one
// with NewInventory.
type Inventory struct {
	set mapset.Set[string]
}

func NewInventory(flags ...string) Inventory {
	inv := Inventory{set: mapset.New[string]()}
	for _, flag := range flags {
		inv.Add(flag)
	}
	return inv
}

func (i Inventory) Has(flag string) bool {
	return i.set.Has(flag)
}

func (i Inventory) Add(flag string) {
	if flag == "" {
		return
	}
	i.set.Put(flag)
}

func (i Inventory) Remove(flag string) {
	i.set.Remove(flag)
}

func (i Inventory) Len() int {
	return i.set.Size()
}

func (i Inventory) Clone() Inventory {
	out := NewInventory()
	i.set.Each(func(flag string) {
		out.set.Put(flag)
	})
	return out
}

// Sorted returns the flags in lexical order.
func (i Inventory) Sorted() []string {
	flags := make([]string, 0, i.set.Size())
	i.set.Each(func(flag string) {
		flags = append(flags, flag)
	})
	sort.Strings(flags)
	return flags
}
