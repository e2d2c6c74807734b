package elevator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/szymonmasternak/area51-elevator/internal/completion"
	"github.com/szymonmasternak/area51-elevator/internal/elevaccess"
	"github.com/szymonmasternak/area51-elevator/internal/elevcall"
	"github.com/szymonmasternak/area51-elevator/internal/elevconsts"
	"github.com/szymonmasternak/area51-elevator/internal/elevevent"
	"github.com/szymonmasternak/area51-elevator/internal/elevqueue"
	"github.com/szymonmasternak/area51-elevator/internal/elevstate"
	"github.com/szymonmasternak/area51-elevator/internal/elevtimer"
	"github.com/szymonmasternak/area51-elevator/internal/floorset"
	"github.com/szymonmasternak/area51-elevator/internal/logger"
)

var Logger = logger.GetLogger()

type Settings struct {
	Floors      *floorset.FloorSet
	Policy      *elevaccess.Policy
	TimeOnFloor time.Duration
	IdleTick    time.Duration

	// Observer receives every dispatcher event synchronously. It must not
	// block and must not call back into the elevator.
	Observer func(elevevent.ElevatorEvent)
}

type Elevator struct {
	State *elevstate.ElevatorState

	floors   *floorset.FloorSet
	policy   *elevaccess.Policy
	queue    *elevqueue.CallQueue
	idleTick time.Duration
	observer func(elevevent.ElevatorEvent)

	// Dispatcher-owned, never touched by other goroutines
	roster  []*elevcall.AgentCall
	current elevcall.Call

	lifecycleMu sync.Mutex
	running     bool
	stopped     bool
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
}

func NewElevator(settings Settings) (*Elevator, error) {
	if settings.Floors == nil {
		return nil, floorset.ErrEmpty
	}
	if settings.Policy == nil {
		return nil, errors.New("elevator needs an access policy")
	}
	if settings.TimeOnFloor < 0 || settings.IdleTick < 0 {
		return nil, fmt.Errorf("negative timing: time on floor %v, idle tick %v", settings.TimeOnFloor, settings.IdleTick)
	}

	state := elevstate.NewElevatorState(settings.Floors, settings.TimeOnFloor)
	state.OnStep = func(floor floorset.Floor) {
		Logger.Trace().Msgf("Passing floor %v", floor)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Elevator{
		State:    state,
		floors:   settings.Floors,
		policy:   settings.Policy,
		queue:    elevqueue.NewCallQueue(),
		idleTick: settings.IdleTick,
		observer: settings.Observer,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}, nil
}

func (e *Elevator) Floors() *floorset.FloorSet {
	return e.floors
}

func (e *Elevator) Status() elevconsts.ElevatorStatus {
	return e.State.Status()
}

// Call queues a ride request from floor `from`. chooseFloor is evaluated once,
// when the passenger boards. The returned handle settles with the outcome of
// the ride or with elevcall.ErrClosed.
func (e *Elevator) Call(from floorset.Floor, passenger elevcall.Passenger, chooseFloor func() floorset.Floor) *completion.Handle[elevcall.Outcome] {
	call := elevcall.NewAgentCall(from, passenger, chooseFloor)

	if !e.floors.Contains(from) {
		Logger.Warn().Msgf("Call from unknown floor %q by %v rejected", from, passenger.Name())
		call.Fail(fmt.Errorf("%w: %q", floorset.ErrUnknownFloor, from))
		return call.Completion()
	}
	if !e.queue.PushBack(call) {
		call.Fail(elevcall.ErrClosed)
		return call.Completion()
	}

	Logger.Debug().Str("call", call.ID().String()).Msgf("%v calls the elevator at floor %v", passenger.Name(), from)
	return call.Completion()
}

func (e *Elevator) Start() {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()

	if e.running {
		Logger.Error().Msg("Elevator already running")
		return
	}
	if e.stopped {
		Logger.Error().Msg("Elevator has been stopped, it cannot be started again")
		return
	}

	e.State.Open()
	e.running = true

	go e.run()
}

// Stop closes the elevator and aborts whatever the dispatcher is waiting on.
// Calling it more than once has no further effect.
func (e *Elevator) Stop() {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()

	if e.stopped {
		return
	}
	e.stopped = true

	Logger.Debug().Msg("Stopping Elevator")
	e.State.Close()
	e.cancel()

	if !e.running {
		// No dispatcher will ever drain the queue
		e.discardQueue()
		close(e.done)
	}
}

// Wait blocks until the elevator has shut down and every outstanding call is
// settled.
func (e *Elevator) Wait() {
	<-e.done
}

func (e *Elevator) Done() <-chan struct{} {
	return e.done
}

func (e *Elevator) run() {
	defer close(e.done)

	for e.State.Status() != elevconsts.Closed {
		if call, ok := e.queue.PopFront(); ok {
			e.current = call
			err := e.handleCall(e.ctx, call)
			switch {
			case errors.Is(err, context.Canceled):
				// Left in e.current for shutdown to settle
				continue
			case err != nil:
				Logger.Error().Err(err).Msgf("Handling call to floor %v failed", call.Floor())
			}
			e.current = nil
		}

		// Cancellation only matters once the status says Closed
		_ = elevtimer.Sleep(e.ctx, e.idleTick)
	}

	e.shutdown()
	Logger.Debug().Msg("Stopped Elevator")
}

func (e *Elevator) emit(value any) {
	if e.observer != nil {
		e.observer(elevevent.Wrap(value))
	}
}
