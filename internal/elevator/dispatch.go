package elevator

import (
	"context"
	"fmt"

	"github.com/szymonmasternak/area51-elevator/internal/elevcall"
	"github.com/szymonmasternak/area51-elevator/internal/elevevent"
	"github.com/szymonmasternak/area51-elevator/internal/floorset"
)

// handleCall serves a single call: travel, access check, disembark, board and
// press the buttons of whoever got on. Only a context error leaves the call
// half done.
func (e *Elevator) handleCall(ctx context.Context, call elevcall.Call) error {
	floor := call.Floor()

	if err := e.travel(ctx, floor); err != nil {
		return err
	}

	// At most one violation is resolved per stop, the roster and queue are
	// not looked at again after it.
	for _, aboard := range e.roster {
		if !e.policy.Allowed(aboard.Passenger().Clearance(), floor) {
			// The interrupted caller waits behind the retry, which stops here
			// again and boards it.
			if agentCall, ok := call.(*elevcall.AgentCall); ok {
				e.queue.PushFront(agentCall)
			}
			return e.returnToOrigin(ctx, aboard, floor)
		}
	}

	e.emit(elevevent.ArrivalEvent{Floor: floor})
	Logger.Debug().Msgf("The elevator arrived at floor %v", floor)

	e.disembark(floor)

	var buttons []floorset.Floor
	pressed := make(map[floorset.Floor]bool)
	press := func(destination floorset.Floor, ok bool) {
		if ok && !pressed[destination] {
			pressed[destination] = true
			buttons = append(buttons, destination)
		}
	}

	if agentCall, ok := call.(*elevcall.AgentCall); ok {
		press(e.board(agentCall))
	}

	waiting := e.queue.RemoveMatching(func(queued elevcall.Call) bool {
		_, isAgent := queued.(*elevcall.AgentCall)
		return isAgent && queued.Floor() == floor
	})
	for _, queued := range waiting {
		press(e.board(queued.(*elevcall.AgentCall)))
	}

	for _, destination := range buttons {
		if e.queue.PushBack(elevcall.NewButtonCall(destination)) {
			e.emit(elevevent.ButtonPressEvent{Floor: destination})
		}
	}

	e.emit(elevevent.DoorsClosingEvent{Floor: floor})
	return nil
}

func (e *Elevator) travel(ctx context.Context, to floorset.Floor) error {
	from := e.State.Floor()
	if from != to {
		if distance, err := e.floors.Distance(from, to); err == nil {
			Logger.Debug().Msgf("The elevator is going from %v to %v, %d floors", from, to, distance)
		}
		e.emit(elevevent.TravelEvent{From: from, To: to})
	}
	return e.State.GoTo(ctx, to)
}

// returnToOrigin takes a passenger without clearance for floor back to where
// it got on, lets it off there and queues its destination again at the front.
func (e *Elevator) returnToOrigin(ctx context.Context, aboard *elevcall.AgentCall, floor floorset.Floor) error {
	name := aboard.Passenger().Name()
	Logger.Info().Str("call", aboard.ID().String()).Msgf("%v lacks clearance for floor %v, returning to %v", name, floor, aboard.Origin())
	e.emit(elevevent.AccessDeniedEvent{Agent: name, Floor: floor, Origin: aboard.Origin()})

	aboard.Deny(floor)

	if err := e.travel(ctx, aboard.Origin()); err != nil {
		return err
	}

	e.removeFromRoster(aboard)
	reached := e.State.Floor()
	aboard.Returned(reached)
	e.emit(elevevent.ReturnEvent{Agent: name, Floor: reached})

	retry := aboard.Destination()
	if e.queue.PushFront(elevcall.NewButtonCall(retry)) {
		e.emit(elevevent.ButtonPressEvent{Floor: retry, Priority: true})
	}
	return nil
}

// disembark lets passengers off one at a time, so the roster never holds
// someone who was already reported as gone.
func (e *Elevator) disembark(floor floorset.Floor) {
	for i := 0; i < len(e.roster); {
		aboard := e.roster[i]
		if aboard.Destination() != floor {
			i++
			continue
		}
		e.removeFromRoster(aboard)
		aboard.Arrive(floor)
		e.emit(elevevent.DisembarkEvent{Agent: aboard.Passenger().Name(), Floor: floor})
	}
}

// board adds call to the roster and returns the destination button it presses.
// A passenger whose chooser picks an unusable floor is refused.
func (e *Elevator) board(call *elevcall.AgentCall) (floorset.Floor, bool) {
	name := call.Passenger().Name()

	for _, aboard := range e.roster {
		if aboard == call || aboard.Passenger().Name() == name {
			Logger.Error().Msgf("%v is already aboard, not boarding twice", name)
			e.reject(call, fmt.Errorf("%w: %v", elevcall.ErrAlreadyAboard, name))
			return "", false
		}
	}

	destination := call.Destination()
	if !e.floors.Contains(destination) || destination == call.Origin() {
		e.reject(call, fmt.Errorf("%w: %q from %q", elevcall.ErrInvalidDestination, destination, call.Origin()))
		return "", false
	}

	e.roster = append(e.roster, call)
	Logger.Debug().Str("call", call.ID().String()).Msgf("%v gets in and presses %v", name, destination)
	e.emit(elevevent.BoardEvent{Agent: name, Floor: call.Origin(), Destination: destination})
	return destination, true
}

func (e *Elevator) reject(call *elevcall.AgentCall, err error) {
	Logger.Warn().Err(err).Msgf("Rejecting call of %v", call.Passenger().Name())
	call.Fail(err)
	e.emit(elevevent.RejectEvent{Agent: call.Passenger().Name(), Floor: call.Floor(), Err: err})
}

func (e *Elevator) removeFromRoster(call *elevcall.AgentCall) {
	for i, aboard := range e.roster {
		if aboard == call {
			e.roster = append(e.roster[:i], e.roster[i+1:]...)
			return
		}
	}
}

// shutdown runs once the dispatcher loop has seen Closed. Everyone aboard is
// put out and every unserved call is failed with ErrClosed.
func (e *Elevator) shutdown() {
	for len(e.roster) > 0 {
		aboard := e.roster[0]
		e.removeFromRoster(aboard)
		aboard.Fail(elevcall.ErrClosed)
		e.emit(elevevent.EvictEvent{Agent: aboard.Passenger().Name()})
	}

	// The call being served when Stop hit. An agent call that already boarded
	// was settled above.
	switch current := e.current.(type) {
	case *elevcall.AgentCall:
		if current.Fail(elevcall.ErrClosed) {
			e.emit(elevevent.DiscardEvent{Agent: current.Passenger().Name(), Floor: current.Floor()})
		}
	case elevcall.ButtonCall:
		e.emit(elevevent.DiscardEvent{Floor: current.Floor()})
	}
	e.current = nil

	e.discardQueue()
}

func (e *Elevator) discardQueue() {
	for _, call := range e.queue.Close() {
		switch queued := call.(type) {
		case *elevcall.AgentCall:
			// An interrupted call is both current and queued, report it once
			if queued.Fail(elevcall.ErrClosed) {
				e.emit(elevevent.DiscardEvent{Agent: queued.Passenger().Name(), Floor: queued.Floor()})
			}
		default:
			e.emit(elevevent.DiscardEvent{Floor: queued.Floor()})
		}
	}
}
