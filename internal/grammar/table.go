package grammar

import "github.com/pkg/errors"

// First computes FIRST sets by fixed point: terminals are their own FIRST;
// for A -> X1...Xn, add FIRST(Xi) minus ε until a non-nullable prefix is
// crossed; propagate ε when all Xi are nullable.
func (g *Grammar) First() map[string]map[string]bool {
	first := make(map[string]map[string]bool)
	for t := range g.Terminals {
		first[t] = map[string]bool{t: true}
	}
	for nt := range g.NonTerminals {
		if _, ok := first[nt]; !ok {
			first[nt] = map[string]bool{}
		}
	}
	nullable := make(map[string]bool)

	changed := true
	for changed {
		changed = false
		for _, p := range g.Productions {
			if len(p.RHS) == 0 {
				if !nullable[p.LHS] {
					nullable[p.LHS] = true
					changed = true
				}
				continue
			}
			allNullable := true
			for _, sym := range p.RHS {
				for s := range first[sym] {
					if s == Epsilon {
						continue
					}
					if !first[p.LHS][s] {
						first[p.LHS][s] = true
						changed = true
					}
				}
				if !nullable[sym] {
					allNullable = false
					break
				}
			}
			if allNullable && !nullable[p.LHS] {
				nullable[p.LHS] = true
				changed = true
			}
		}
	}
	for nt := range nullable {
		first[nt][Epsilon] = true
	}
	return first
}

// firstOfSeq returns FIRST of a symbol sequence: FIRST(X1) unioned in until
// a non-nullable Xi, plus ε itself if the whole sequence is nullable.
func firstOfSeq(seq []string, first map[string]map[string]bool, nullable func(string) bool) map[string]bool {
	out := map[string]bool{}
	allNullable := true
	for _, sym := range seq {
		for s := range first[sym] {
			if s == Epsilon {
				continue
			}
			out[s] = true
		}
		if !nullable(sym) {
			allNullable = false
			break
		}
	}
	if allNullable {
		out[Epsilon] = true
	}
	return out
}

// Follow computes FOLLOW sets: FOLLOW(start) = {EOF}; for each A -> α B β,
// add FIRST(β)\{ε} to FOLLOW(B); if β is nullable or absent add FOLLOW(A).
func (g *Grammar) Follow(first map[string]map[string]bool) map[string]map[string]bool {
	follow := make(map[string]map[string]bool)
	for nt := range g.NonTerminals {
		follow[nt] = map[string]bool{}
	}
	augStart := g.Productions[0].LHS
	follow[augStart][EOF] = true

	nullable := func(sym string) bool {
		return first[sym][Epsilon]
	}

	changed := true
	for changed {
		changed = false
		for _, p := range g.Productions {
			for i, b := range p.RHS {
				if !g.IsNonTerminal(b) {
					continue
				}
				beta := p.RHS[i+1:]
				fb := firstOfSeq(beta, first, nullable)
				for s := range fb {
					if s == Epsilon {
						continue
					}
					if !follow[b][s] {
						follow[b][s] = true
						changed = true
					}
				}
				if len(beta) == 0 || fb[Epsilon] {
					for s := range follow[p.LHS] {
						if !follow[b][s] {
							follow[b][s] = true
							changed = true
						}
					}
				}
			}
		}
	}
	return follow
}

// ActionKind discriminates ACTION table entries.
type ActionKind int

const (
	ActionShift ActionKind = iota
	ActionReduce
	ActionAccept
)

// Action is one ACTION[state][terminal] table cell.
type Action struct {
	Kind  ActionKind
	State int // Target state, for Shift.
	Prod  int // Production to reduce by, for Reduce.
}

// ConflictKind distinguishes the two ACTION-table collision categories the
// build reports.
type ConflictKind int

const (
	ConflictShiftReduce ConflictKind = iota
	ConflictReduceReduce
)

// Conflict records one ACTION-table collision, including which entry won.
type Conflict struct {
	State   int
	Symbol  string
	Kind    ConflictKind
	Winner  Action
	Detail  string
}

// Table is the SLR(1) ACTION/GOTO table plus the recorded conflicts.
type Table struct {
	Action       []map[string]Action
	GotoTable    []map[string]int
	Conflicts    []Conflict
	HasConflicts bool
}

// Build constructs the ACTION/GOTO table from the canonical collection.
// Conflict policy:
//   - shift/reduce collision at (state, terminal): always prefer SHIFT;
//     record the conflict but do not fail the build.
//   - reduce/reduce collision: record the conflict and keep the later
//     entry (the second writer wins); flag the table as containing
//     conflicts.
func Build(g *Grammar, states []ItemSet, follow map[string]map[string]bool) (*Table, error) {
	t := &Table{
		Action:    make([]map[string]Action, len(states)),
		GotoTable: make([]map[string]int, len(states)),
	}
	for i := range states {
		t.Action[i] = make(map[string]Action)
		t.GotoTable[i] = make(map[string]int)
	}

	set := func(state int, sym string, act Action) {
		existing, ok := t.Action[state][sym]
		if !ok {
			t.Action[state][sym] = act
			return
		}
		switch {
		case existing.Kind == ActionShift && act.Kind == ActionReduce:
			// Shift already won; prefer SHIFT, just record the conflict.
			t.Conflicts = append(t.Conflicts, Conflict{State: state, Symbol: sym, Kind: ConflictShiftReduce,
				Winner: existing, Detail: "shift/reduce: SHIFT preferred (spec default)"})
		case existing.Kind == ActionReduce && act.Kind == ActionShift:
			t.Action[state][sym] = act // SHIFT always wins, even arriving second.
			t.Conflicts = append(t.Conflicts, Conflict{State: state, Symbol: sym, Kind: ConflictShiftReduce,
				Winner: act, Detail: "shift/reduce: SHIFT preferred (spec default)"})
		case existing.Kind == ActionReduce && act.Kind == ActionReduce:
			t.Action[state][sym] = act // Second writer wins.
			t.HasConflicts = true
			t.Conflicts = append(t.Conflicts, Conflict{State: state, Symbol: sym, Kind: ConflictReduceReduce,
				Winner: act, Detail: "reduce/reduce: later production wins"})
		default:
			// Two shifts to the same state by construction never disagree;
			// leave the existing entry.
		}
	}

	for si, state := range states {
		for _, it := range state.Items {
			p := g.Productions[it.Prod]
			if it.Dot < len(p.RHS) {
				sym := p.RHS[it.Dot]
				if !g.IsNonTerminal(sym) {
					if target, ok := state.Goto[sym]; ok {
						set(si, sym, Action{Kind: ActionShift, State: target})
					}
				}
				continue
			}
			// Dot at end: reduce, or accept for production 0 on EOF.
			if it.Prod == 0 {
				set(si, EOF, Action{Kind: ActionAccept, Prod: 0})
				continue
			}
			for term := range follow[p.LHS] {
				set(si, term, Action{Kind: ActionReduce, Prod: it.Prod})
			}
		}
		for sym, target := range state.Goto {
			if g.IsNonTerminal(sym) {
				t.GotoTable[si][sym] = target
			}
		}
	}
	if len(states) == 0 {
		return nil, errors.New("grammar: empty canonical collection")
	}
	return t, nil
}
