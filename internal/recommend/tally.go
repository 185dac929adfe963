package recommend

import "slices"

// tally accumulates scores per key and remembers first-seen order, so ties
// rank in insertion order.
type tally struct {
	order  []string
	scores map[string]float64
}

func newTally() *tally {
	return &tally{scores: make(map[string]float64)}
}

func (t *tally) add(key string, delta float64) {
	if _, ok := t.scores[key]; !ok {
		t.order = append(t.order, key)
	}
	t.scores[key] += delta
}

// top returns up to n keys by descending score.
func (t *tally) top(n int) []string {
	keys := slices.Clone(t.order)
	slices.SortStableFunc(keys, func(a, b string) int {
		return compareDesc(t.scores[a], t.scores[b])
	})
	return head(keys, n)
}

type orderedSet struct {
	order   []string
	members map[string]struct{}
}

// orderedSets groups values per key, keeping both key and value insertion order.
type orderedSets struct {
	keys []string
	sets map[string]*orderedSet
}

func newOrderedSets() *orderedSets {
	return &orderedSets{sets: make(map[string]*orderedSet)}
}

func (o *orderedSets) add(key, value string) {
	set, ok := o.sets[key]
	if !ok {
		set = &orderedSet{members: make(map[string]struct{})}
		o.sets[key] = set
		o.keys = append(o.keys, key)
	}
	if _, dup := set.members[value]; dup {
		return
	}
	set.members[value] = struct{}{}
	set.order = append(set.order, value)
}
