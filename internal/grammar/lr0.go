package grammar

import "sort"

// Item is a production with a dot marking progress; LR(0) items carry no
// lookahead.
type Item struct {
	Prod int
	Dot  int
}

// ItemSet is an LR(0) state: a set of items plus its outgoing GOTO
// transitions, filled in during canonical-collection construction.
type ItemSet struct {
	Items []Item          // Sorted, deduplicated — set equality is by this slice's contents.
	Goto  map[string]int  // symbol -> successor state index.
}

func sortItems(items []Item) []Item {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Prod != items[j].Prod {
			return items[i].Prod < items[j].Prod
		}
		return items[i].Dot < items[j].Dot
	})
	return items
}

func dedupItems(items []Item) []Item {
	seen := make(map[Item]bool, len(items))
	out := items[:0]
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			out = append(out, it)
		}
	}
	return out
}

func itemSetKey(items []Item) string {
	var b []byte
	for _, it := range items {
		b = append(b, byte(it.Prod), byte(it.Prod>>8), byte(it.Dot), byte(it.Dot>>8))
	}
	return string(b)
}

// symbolAtDot returns the symbol immediately after the dot in item it, and
// whether one exists (the dot may be at the end of the production).
func (g *Grammar) symbolAtDot(it Item) (string, bool) {
	p := g.Productions[it.Prod]
	if it.Dot >= len(p.RHS) {
		return "", false
	}
	return p.RHS[it.Dot], true
}

// Closure computes the fixed-point expansion of an item set: for every item
// A -> α · B β with B a non-terminal, add every B -> · γ.
func (g *Grammar) Closure(items []Item) []Item {
	result := append([]Item(nil), items...)
	result = dedupItems(sortItems(result))
	changed := true
	for changed {
		changed = false
		for _, it := range result {
			sym, ok := g.symbolAtDot(it)
			if !ok || !g.IsNonTerminal(sym) {
				continue
			}
			for pi, p := range g.Productions {
				if p.LHS != sym {
					continue
				}
				cand := Item{Prod: pi, Dot: 0}
				found := false
				for _, r := range result {
					if r == cand {
						found = true
						break
					}
				}
				if !found {
					result = append(result, cand)
					changed = true
				}
			}
		}
		result = dedupItems(sortItems(result))
	}
	return result
}

// Goto shifts the dot across symbol in every matching item of I and takes
// the closure of the result.
func (g *Grammar) Goto(items []Item, symbol string) []Item {
	var moved []Item
	for _, it := range items {
		sym, ok := g.symbolAtDot(it)
		if ok && sym == symbol {
			moved = append(moved, Item{Prod: it.Prod, Dot: it.Dot + 1})
		}
	}
	if moved == nil {
		return nil
	}
	return g.Closure(moved)
}

// CanonicalCollection builds the canonical LR(0) item-set family by BFS from
// Closure({S' -> ·S}). Set equality is by item contents; insertion order
// gives state numbering. The grammar carries no lookahead in the item
// itself — that's supplied later by FOLLOW sets, per SLR(1).
func (g *Grammar) CanonicalCollection() []ItemSet {
	start := Item{Prod: 0, Dot: 0}
	initial := g.Closure([]Item{start})
	states := []ItemSet{{Items: initial, Goto: make(map[string]int)}}
	index := map[string]int{itemSetKey(initial): 0}

	queue := []int{0}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		symbols := map[string]bool{}
		for _, it := range states[cur].Items {
			if sym, ok := g.symbolAtDot(it); ok {
				symbols[sym] = true
			}
		}
		syms := make([]string, 0, len(symbols))
		for s := range symbols {
			syms = append(syms, s)
		}
		sort.Strings(syms)

		for _, sym := range syms {
			gotoSet := g.Goto(states[cur].Items, sym)
			if len(gotoSet) == 0 {
				continue
			}
			key := itemSetKey(gotoSet)
			next, ok := index[key]
			if !ok {
				states = append(states, ItemSet{Items: gotoSet, Goto: make(map[string]int)})
				next = len(states) - 1
				index[key] = next
				queue = append(queue, next)
			}
			states[cur].Goto[sym] = next
		}
	}
	return states
}
