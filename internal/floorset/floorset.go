package floorset

import (
	"errors"
	"fmt"
)

var (
	ErrEmpty          = errors.New("floor set is empty")
	ErrUnknownFloor   = errors.New("unknown floor")
	ErrDuplicateFloor = errors.New("duplicate floor")
)

type Floor string

// FloorSet is an ordered, immutable list of floors. The position of a floor
// in the set is what travel distance is measured in.
type FloorSet struct {
	floors []Floor
	index  map[Floor]int
}

func New(floors ...Floor) (*FloorSet, error) {
	if len(floors) == 0 {
		return nil, ErrEmpty
	}

	fs := &FloorSet{
		floors: make([]Floor, len(floors)),
		index:  make(map[Floor]int, len(floors)),
	}
	for i, floor := range floors {
		if _, exists := fs.index[floor]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateFloor, floor)
		}
		fs.floors[i] = floor
		fs.index[floor] = i
	}
	return fs, nil
}

func FromStrings(floors []string) (*FloorSet, error) {
	converted := make([]Floor, len(floors))
	for i, floor := range floors {
		converted[i] = Floor(floor)
	}
	return New(converted...)
}

func (fs *FloorSet) Len() int {
	return len(fs.floors)
}

func (fs *FloorSet) At(i int) Floor {
	return fs.floors[i]
}

func (fs *FloorSet) IndexOf(floor Floor) (int, bool) {
	i, ok := fs.index[floor]
	return i, ok
}

func (fs *FloorSet) Contains(floor Floor) bool {
	_, ok := fs.index[floor]
	return ok
}

// Base is the lowest floor, where agents start.
func (fs *FloorSet) Base() Floor {
	return fs.floors[0]
}

// Distance is the number of floors between a and b.
func (fs *FloorSet) Distance(a, b Floor) (int, error) {
	ia, ok := fs.index[a]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownFloor, a)
	}
	ib, ok := fs.index[b]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownFloor, b)
	}
	if ia > ib {
		return ia - ib, nil
	}
	return ib - ia, nil
}

func (fs *FloorSet) Floors() []Floor {
	floors := make([]Floor, len(fs.floors))
	copy(floors, fs.floors)
	return floors
}

// Others lists every floor except the given one, in set order.
func (fs *FloorSet) Others(floor Floor) []Floor {
	others := make([]Floor, 0, len(fs.floors))
	for _, f := range fs.floors {
		if f != floor {
			others = append(others, f)
		}
	}
	return others
}

func (fs *FloorSet) Strings() []string {
	floors := make([]string, len(fs.floors))
	for i, f := range fs.floors {
		floors[i] = string(f)
	}
	return floors
}
