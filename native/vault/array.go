package vault

import "encoding/json"

// MaxStrategies bounds how many strategies a single vault can hold, matching
// the reference implementation's fixed-size strategy array.
const MaxStrategies = 6

// MaxPositions bounds how many positions a single user statement can hold
// across all vaults.
const MaxPositions = 64

// Strategies is the capacity-bounded, LIFO-growing collection backing a
// vault's strategy list: Add appends at a fixed slot and Remove pops the
// most recently added entry, matching the reference's FixedSizeVector.
type Strategies struct {
	data [MaxStrategies]Strategy
	head int
}

// Len reports how many strategies are currently populated.
func (s *Strategies) Len() int { return s.head }

// Add appends a strategy, failing once the fixed capacity is exhausted.
func (s *Strategies) Add(st Strategy) error {
	if s.head >= MaxStrategies {
		return ErrCannotAddStrategy
	}
	s.data[s.head] = st
	s.head++
	return nil
}

// Remove pops the most recently added strategy (LIFO), failing on an empty
// array.
func (s *Strategies) Remove() (Strategy, error) {
	if s.head == 0 {
		return Strategy{}, ErrArrayEmpty
	}
	s.head--
	return s.data[s.head], nil
}

// Get returns a pointer to the entry at i, bounded by the fixed capacity
// rather than the number of populated entries.
func (s *Strategies) Get(i int) (*Strategy, error) {
	if i < 0 || i >= MaxStrategies {
		return nil, ErrIndexOutOfBounds
	}
	return &s.data[i], nil
}

// GetChecked returns a pointer to the entry at i, bounded by the number of
// populated entries.
func (s *Strategies) GetChecked(i int) (*Strategy, error) {
	if i < 0 || i >= s.head {
		return nil, ErrNoStrategyOnIndex
	}
	return &s.data[i], nil
}

// Iter returns pointers to every populated strategy, in index order.
func (s *Strategies) Iter() []*Strategy {
	out := make([]*Strategy, 0, s.head)
	for i := 0; i < s.head; i++ {
		out = append(out, &s.data[i])
	}
	return out
}

// Positions is the head-bounded collection backing a user statement: unlike
// Strategies, entries are found by structural key and deleted positions are
// compacted by rotating the tail left, matching the reference's SafeArray.
type Positions struct {
	data [MaxPositions]Position
	head int
}

// Len reports how many positions are currently populated.
func (p *Positions) Len() int { return p.head }

// Add appends a position, failing once the fixed capacity is exhausted.
func (p *Positions) Add(pos Position) error {
	if p.head >= MaxPositions {
		return ErrCannotAddPosition
	}
	p.data[p.head] = pos
	p.head++
	return nil
}

// Get returns a pointer to the entry at i, bounded by the fixed capacity.
func (p *Positions) Get(i int) (*Position, error) {
	if i < 0 || i >= MaxPositions {
		return nil, ErrIndexOutOfBounds
	}
	return &p.data[i], nil
}

// GetChecked returns a pointer to the entry at i, bounded by the number of
// populated entries.
func (p *Positions) GetChecked(i int) (*Position, error) {
	if i < 0 || i >= p.head {
		return nil, ErrIndexOutOfBounds
	}
	return &p.data[i], nil
}

// FindMut returns a pointer to the first position structurally equal to key
// (see Position.Equal), if any.
func (p *Positions) FindMut(key Position) (*Position, bool) {
	_, pos, ok := p.EnumerateFindMut(key)
	return pos, ok
}

// EnumerateFindMut is FindMut plus the index of the match, used by callers
// that need to delete the entry afterwards.
func (p *Positions) EnumerateFindMut(key Position) (int, *Position, bool) {
	for i := 0; i < p.head; i++ {
		if p.data[i].Equal(key) {
			return i, &p.data[i], true
		}
	}
	return -1, nil, false
}

// Delete removes the entry at i, rotating the tail left to keep the
// populated prefix contiguous.
func (p *Positions) Delete(i int) error {
	if i < 0 || i >= p.head {
		return ErrIndexOutOfBounds
	}
	for j := i; j < p.head-1; j++ {
		p.data[j] = p.data[j+1]
	}
	p.data[p.head-1] = Position{}
	p.head--
	return nil
}

// Iter returns pointers to every populated position, in index order.
func (p *Positions) Iter() []*Position {
	out := make([]*Position, 0, p.head)
	for i := 0; i < p.head; i++ {
		out = append(out, &p.data[i])
	}
	return out
}

// MarshalJSON renders only the populated prefix, so a persisted statement
// doesn't carry 64 mostly-empty position slots on the wire.
func (p Positions) MarshalJSON() ([]byte, error) {
	out := make([]Position, p.head)
	copy(out, p.data[:p.head])
	return json.Marshal(out)
}

func (p *Positions) UnmarshalJSON(data []byte) error {
	var in []Position
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*p = Positions{}
	for _, pos := range in {
		if err := p.Add(pos); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON renders only the populated prefix of the strategy list.
func (s Strategies) MarshalJSON() ([]byte, error) {
	out := make([]Strategy, s.head)
	copy(out, s.data[:s.head])
	return json.Marshal(out)
}

func (s *Strategies) UnmarshalJSON(data []byte) error {
	var in []Strategy
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*s = Strategies{}
	for _, st := range in {
		if err := s.Add(st); err != nil {
			return err
		}
	}
	return nil
}
