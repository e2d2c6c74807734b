package elevstate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/szymonmasternak/area51-elevator/internal/elevconsts"
	"github.com/szymonmasternak/area51-elevator/internal/elevtimer"
	"github.com/szymonmasternak/area51-elevator/internal/floorset"
	"github.com/szymonmasternak/area51-elevator/internal/logger"
)

var Log = logger.GetLogger()

// ElevatorState is the traversal state machine. The floor index is only ever
// touched by the dispatcher goroutine; the status is shared with Stop and
// therefore sits behind its own lock.
type ElevatorState struct {
	floors      *floorset.FloorSet
	floorIndex  int
	timeOnFloor time.Duration

	statusMu sync.Mutex
	status   elevconsts.ElevatorStatus
	sealed   bool

	// Called after every single-floor step, on the dispatcher goroutine
	OnStep func(floor floorset.Floor)
}

func NewElevatorState(floors *floorset.FloorSet, timeOnFloor time.Duration) *ElevatorState {
	return &ElevatorState{
		floors:      floors,
		floorIndex:  0,
		timeOnFloor: timeOnFloor,
		status:      elevconsts.Closed,
	}
}

func (es *ElevatorState) Status() elevconsts.ElevatorStatus {
	es.statusMu.Lock()
	defer es.statusMu.Unlock()
	return es.status
}

// Open moves a freshly constructed state from Closed to Waiting. A state that
// was opened or closed before stays where it is.
func (es *ElevatorState) Open() bool {
	es.statusMu.Lock()
	defer es.statusMu.Unlock()
	if es.sealed {
		return false
	}
	es.sealed = true
	es.status = elevconsts.Waiting
	return true
}

// Close is unconditional and final.
func (es *ElevatorState) Close() {
	es.statusMu.Lock()
	defer es.statusMu.Unlock()
	es.sealed = true
	es.status = elevconsts.Closed
}

// CompareAndSetStatus switches to `to` only if the current status is `from`.
// Closed is never left this way.
func (es *ElevatorState) CompareAndSetStatus(from, to elevconsts.ElevatorStatus) bool {
	es.statusMu.Lock()
	defer es.statusMu.Unlock()
	if es.status != from || es.status == elevconsts.Closed {
		return false
	}
	es.status = to
	return true
}

func (es *ElevatorState) Floor() floorset.Floor {
	return es.floors.At(es.floorIndex)
}

func (es *ElevatorState) FloorIndex() int {
	return es.floorIndex
}

func (es *ElevatorState) Floors() *floorset.FloorSet {
	return es.floors
}

func (es *ElevatorState) directionTo(target int) elevconsts.Dirn {
	switch {
	case target > es.floorIndex:
		return elevconsts.Up
	case target < es.floorIndex:
		return elevconsts.Down
	default:
		return elevconsts.Stop
	}
}

// GoTo moves one floor per timeOnFloor until target is reached. A cancelled
// ctx aborts the trip between floors and its error is returned as is.
func (es *ElevatorState) GoTo(ctx context.Context, target floorset.Floor) error {
	targetIndex, ok := es.floors.IndexOf(target)
	if !ok {
		return fmt.Errorf("%w: %q", floorset.ErrUnknownFloor, target)
	}

	dirn := es.directionTo(targetIndex)
	if dirn == elevconsts.Stop {
		return nil
	}

	es.CompareAndSetStatus(elevconsts.Waiting, elevconsts.Moving)
	Log.Debug().Msgf("Moving %v from %v to %v", dirn, es.Floor(), target)

	for es.floorIndex != targetIndex {
		if err := elevtimer.Sleep(ctx, es.timeOnFloor); err != nil {
			return err
		}
		es.floorIndex += int(dirn)
		if es.OnStep != nil {
			es.OnStep(es.Floor())
		}
	}

	es.CompareAndSetStatus(elevconsts.Moving, elevconsts.Waiting)
	return nil
}
