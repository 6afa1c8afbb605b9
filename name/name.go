package name

import (
	"errors"
	"fmt"
	"sync"

	"github.com/segmentio/fasthash/fnv1a"
	"github.com/tevino/abool/v2"
)

const kShardCount = 16

var ErrFrozen = errors.New("interner is frozen")

type symbol struct {
	spelling_ string
	hash_     uint64
}

// Name is an interned identifier. Two names are equal iff they were interned
// from the same spelling by the same Interner.
type Name struct {
	sym *symbol
}

func (this Name) String() string {
	if this.sym == nil {
		return ""
	}
	return this.sym.spelling_
}

// GoString makes %#v print names the way diagnostics quote them.
func (this Name) GoString() string {
	return fmt.Sprintf("«%s»", this.String())
}

func (this Name) Hash() uint64 {
	if this.sym == nil {
		return 0
	}
	return this.sym.hash_
}

func (this Name) IsZero() bool { return this.sym == nil }

func (this Name) Is(s string) bool { return this.String() == s }

type shard struct {
	mu   sync.Mutex
	syms map[string]*symbol
}

// Interner hands out Names. Safe for concurrent use.
type Interner struct {
	shards_ [kShardCount]shard
	frozen_ *abool.AtomicBool
}

func NewInterner() *Interner {
	ret := Interner{}
	for i := range ret.shards_ {
		ret.shards_[i].syms = map[string]*symbol{}
	}
	ret.frozen_ = abool.New()
	return &ret
}

func (this *Interner) shardFor(hash uint64) *shard {
	return &this.shards_[hash%kShardCount]
}

// TryIntern returns the Name for s, creating it unless the interner is frozen.
func (this *Interner) TryIntern(s string) (Name, error) {
	hash := fnv1a.HashString64(s)
	sh := this.shardFor(hash)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sym, ok := sh.syms[s]; ok {
		return Name{sym}, nil
	}
	if this.frozen_.IsSet() {
		return Name{}, fmt.Errorf("intern %q: %w", s, ErrFrozen)
	}
	sym := &symbol{spelling_: s, hash_: hash}
	sh.syms[s] = sym
	return Name{sym}, nil
}

func (this *Interner) Intern(s string) Name {
	n, err := this.TryIntern(s)
	if err != nil {
		panic(err)
	}
	return n
}

// Lookup finds an existing Name without creating one.
func (this *Interner) Lookup(s string) (Name, bool) {
	sh := this.shardFor(fnv1a.HashString64(s))
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sym, ok := sh.syms[s]
	return Name{sym}, ok
}

// Freeze stops the interner from accepting new spellings.
func (this *Interner) Freeze() { this.frozen_.Set() }

func (this *Interner) Frozen() bool { return this.frozen_.IsSet() }

func (this *Interner) Len() int {
	total := 0
	for i := range this.shards_ {
		sh := &this.shards_[i]
		sh.mu.Lock()
		total += len(sh.syms)
		sh.mu.Unlock()
	}
	return total
}

var defaultInterner = NewInterner()

// Default returns the interner used by N.
func Default() *Interner { return defaultInterner }

// N interns s in the default interner.
func N(s string) Name { return defaultInterner.Intern(s) }
