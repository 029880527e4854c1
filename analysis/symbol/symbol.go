// Package symbol implements the process-wide symbol interner.
//
// Symbols are small copyable keys: two symbols are equal iff they were
// interned from the same string. The interner is append-only and shared by
// every analysis run in the process.
package symbol

import (
	"fmt"
	"sync"
)

// Symbol is an interned identifier.
type Symbol uint32

type interner struct {
	mu       sync.Mutex
	ids      map[string]Symbol
	names    []string
	freshCtr int
}

var global = &interner{ids: make(map[string]Symbol)}

func (in *interner) add(s string) Symbol {
	if sym, ok := in.ids[s]; ok {
		return sym
	}
	sym := Symbol(len(in.names))
	in.ids[s] = sym
	in.names = append(in.names, s)
	return sym
}

// New interns s.
func New(s string) Symbol {
	global.mu.Lock()
	defer global.mu.Unlock()
	return global.add(s)
}

// Fresh interns a new symbol that is distinct from every symbol interned so far.
// The prefix only serves readability of printed states.
func Fresh(prefix string) Symbol {
	global.mu.Lock()
	defer global.mu.Unlock()
	for {
		s := fmt.Sprintf("%s_%d", prefix, global.freshCtr)
		global.freshCtr++
		if _, taken := global.ids[s]; !taken {
			return global.add(s)
		}
	}
}

func (s Symbol) String() string {
	global.mu.Lock()
	defer global.mu.Unlock()
	if int(s) >= len(global.names) {
		panic(fmt.Errorf("symbol %d was never interned", uint32(s)))
	}
	return global.names[s]
}

// Hash implements utils.Hashable.
func (s Symbol) Hash() uint32 {
	// Symbols are dense, a multiplicative hash spreads them over the trie.
	return uint32(s) * 2654435761
}

func (s Symbol) Equal(o Symbol) bool {
	return s == o
}

// Well-known symbols produced by the analysis itself.
var (
	Undef = New("Undef")
	True  = New("True")
	False = New("False")
)
