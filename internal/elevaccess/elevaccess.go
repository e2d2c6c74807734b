package elevaccess

import (
	"fmt"

	"github.com/szymonmasternak/area51-elevator/internal/elevconsts"
	"github.com/szymonmasternak/area51-elevator/internal/floorset"
)

// Policy maps every floor to the minimum clearance needed to get off there.
type Policy struct {
	required map[floorset.Floor]elevconsts.Clearance
}

func NewPolicy(floors *floorset.FloorSet, required map[floorset.Floor]elevconsts.Clearance) (*Policy, error) {
	policy := &Policy{required: make(map[floorset.Floor]elevconsts.Clearance, floors.Len())}

	for _, floor := range floors.Floors() {
		clearance, ok := required[floor]
		if !ok {
			return nil, fmt.Errorf("no clearance requirement for floor %q", floor)
		}
		if !clearance.Valid() {
			return nil, fmt.Errorf("floor %q requires unknown clearance %v", floor, clearance)
		}
		policy.required[floor] = clearance
	}
	for floor := range required {
		if !floors.Contains(floor) {
			return nil, fmt.Errorf("clearance requirement for %w %q", floorset.ErrUnknownFloor, floor)
		}
	}
	return policy, nil
}

// DefaultPolicy: confidential agents may only use the ground floor, secret
// agents also the nuclear floor, top secret agents every floor.
func DefaultPolicy(floors *floorset.FloorSet) (*Policy, error) {
	return NewPolicy(floors, map[floorset.Floor]elevconsts.Clearance{
		elevconsts.GroundFloor:       elevconsts.Confidential,
		elevconsts.NuclearFloor:      elevconsts.Secret,
		elevconsts.ExperimentalFloor: elevconsts.TopSecret,
		elevconsts.AlienFloor:        elevconsts.TopSecret,
	})
}

// Allowed panics on a clearance outside the known tiers. That can only come
// from a programming or configuration error and must not be handled per call.
func (p *Policy) Allowed(clearance elevconsts.Clearance, floor floorset.Floor) bool {
	if !clearance.Valid() {
		panic(fmt.Sprintf("unexpected clearance level: %v", clearance))
	}
	required, ok := p.required[floor]
	if !ok {
		return false
	}
	return clearance >= required
}

func (p *Policy) Required(floor floorset.Floor) (elevconsts.Clearance, bool) {
	required, ok := p.required[floor]
	return required, ok
}
