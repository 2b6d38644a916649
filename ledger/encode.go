package ledger

import (
	"encoding/json"
	"fmt"
	"sort"
)

type positionJSON struct {
	Symbol      string       `json:"symbol"`
	Actions     []Action     `json:"actions"`
	Sales       []Sale       `json:"sales"`
	Generations []Generation `json:"generations"`
	Splits      []Split      `json:"splits,omitempty"`
}

type positionSetJSON struct {
	Date      Date           `json:"date"`
	Positions []positionJSON `json:"positions"`
	Sources   map[string]int `json:"sources,omitempty"`
}

// MarshalJSON encodes the set with decimals as strings so that amounts round-trip
// without loss.
func (ps PositionSet) MarshalJSON() ([]byte, error) {
	out := positionSetJSON{
		Date:      ps.Date,
		Positions: make([]positionJSON, 0, len(ps.positions)),
		Sources:   ps.sources,
	}
	for _, symbol := range ps.Symbols() {
		p := ps.positions[symbol]
		out.Positions = append(out.Positions, positionJSON{
			Symbol:      p.Symbol,
			Actions:     p.Actions(),
			Sales:       p.Sales(),
			Generations: p.Generations(),
			Splits:      p.Splits(),
		})
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a set encoded by MarshalJSON and checks that every sale
// can be replayed against its lots.
func (ps *PositionSet) UnmarshalJSON(data []byte) error {
	var in positionSetJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	decoded := NewPositionSet(in.Date)
	for _, raw := range in.Positions {
		if _, exists := decoded.positions[raw.Symbol]; exists {
			return fmt.Errorf("duplicate position %s", raw.Symbol)
		}

		p, err := positionFromJSON(raw)
		if err != nil {
			return err
		}
		decoded.positions[raw.Symbol] = p
	}
	for key, n := range in.Sources {
		if n <= 0 {
			return fmt.Errorf("source %q: invalid count %d", key, n)
		}
	}
	if len(in.Sources) > 0 {
		decoded.sources = in.Sources
	}

	*ps = decoded
	return nil
}

func positionFromJSON(raw positionJSON) (*Position, error) {
	p := &Position{
		Symbol:      raw.Symbol,
		actions:     raw.Actions,
		sales:       raw.Sales,
		generations: raw.Generations,
		splits:      raw.Splits,
	}

	// IDs are a per-position sequence, so sorting by ID restores record order.
	type keyed struct {
		id int
		e  entry
	}
	var all []keyed
	for i, a := range p.actions {
		all = append(all, keyed{a.ID, entry{kind: entryAction, index: i}})
	}
	for i, s := range p.sales {
		all = append(all, keyed{s.ID, entry{kind: entrySale, index: i}})
	}
	for i, g := range p.generations {
		all = append(all, keyed{g.ID, entry{kind: entryGeneration, index: i}})
	}
	for i, s := range p.splits {
		all = append(all, keyed{s.ID, entry{kind: entrySplit, index: i}})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].id < all[j].id })

	seen := make(map[int]bool, len(all))
	for _, k := range all {
		if k.id <= 0 || seen[k.id] {
			return nil, fmt.Errorf("position %s: invalid or duplicate id %d", raw.Symbol, k.id)
		}
		seen[k.id] = true
		p.entries = append(p.entries, k.e)
		p.nextID = k.id
	}

	inv, err := p.replay()
	if err != nil {
		return nil, fmt.Errorf("position %s: %w", raw.Symbol, err)
	}
	p.inv = inv

	return p, nil
}
