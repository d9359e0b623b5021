package ir

import (
	"github.com/emirpasic/gods/maps/treemap"
)

// Signature is one candidate parameter list of an overloaded callable.
type Signature struct {
	Params []Param

	// Result is the candidate's return type. Nil for constructors.
	Result Type

	// Order is the discovery index within the owning set.
	Order int

	// Defaulted counts trailing default parameters dropped to form this
	// candidate.
	Defaulted int
}

// Arity returns the number of parameters.
func (s Signature) Arity() int { return len(s.Params) }

// OverloadSet groups candidate signatures by arity. Arities iterate in
// ascending order; candidates within an arity keep discovery order.
type OverloadSet struct {
	buckets *treemap.Map
	next    int
}

// NewOverloadSet returns an empty set.
func NewOverloadSet() *OverloadSet {
	return &OverloadSet{buckets: treemap.NewWithIntComparator()}
}

// Add records a single candidate with exactly the given parameters.
func (s *OverloadSet) Add(params []Param, result Type) Signature {
	return s.add(params, result, 0)
}

// AddCallable records one candidate per suffix-truncation of the trailing
// default parameters: f(int a, int b = 1, int c = 2) contributes f(a, b, c),
// f(a, b), and f(a). Parameters with defaults that are followed by a
// parameter without one do not count as trailing.
func (s *OverloadSet) AddCallable(params []Param, result Type) []Signature {
	first := len(params)
	for first > 0 && params[first-1].HasDefault {
		first--
	}
	out := make([]Signature, 0, len(params)-first+1)
	for n := len(params); n >= first; n-- {
		out = append(out, s.add(params[:n:n], result, len(params)-n))
	}
	return out
}

func (s *OverloadSet) add(params []Param, result Type, defaulted int) Signature {
	sig := Signature{Params: params, Result: result, Order: s.next, Defaulted: defaulted}
	s.next++
	var bucket []Signature
	if v, ok := s.buckets.Get(len(params)); ok {
		bucket = v.([]Signature)
	}
	s.buckets.Put(len(params), append(bucket, sig))
	return sig
}

// Arities returns the observed arities in ascending order.
func (s *OverloadSet) Arities() []int {
	keys := s.buckets.Keys()
	out := make([]int, len(keys))
	for i, k := range keys {
		out[i] = k.(int)
	}
	return out
}

// Candidates returns the signatures with the given arity in discovery order.
func (s *OverloadSet) Candidates(arity int) []Signature {
	v, ok := s.buckets.Get(arity)
	if !ok {
		return nil
	}
	return v.([]Signature)
}

// Len returns the total number of candidates.
func (s *OverloadSet) Len() int {
	if s == nil {
		return 0
	}
	return s.next
}

// Each calls fn for every candidate, ordered by arity then discovery.
func (s *OverloadSet) Each(fn func(Signature)) {
	it := s.buckets.Iterator()
	for it.Next() {
		for _, sig := range it.Value().([]Signature) {
			fn(sig)
		}
	}
}
