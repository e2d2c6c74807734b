package agent

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"github.com/xyproto/randomstring"

	"github.com/szymonmasternak/area51-elevator/internal/completion"
	"github.com/szymonmasternak/area51-elevator/internal/elevcall"
	"github.com/szymonmasternak/area51-elevator/internal/elevcmd"
	"github.com/szymonmasternak/area51-elevator/internal/elevconsts"
	"github.com/szymonmasternak/area51-elevator/internal/elevtimer"
	"github.com/szymonmasternak/area51-elevator/internal/floorset"
	"github.com/szymonmasternak/area51-elevator/internal/logger"
)

const (
	NAME_DEFAULT_LEN = 6
	// An agent rides RIDE_ODDS times out of DECISION_RANGE and works otherwise
	RIDE_ODDS      = 2
	DECISION_RANGE = 5
)

// Caller is the part of the elevator an agent talks to.
type Caller interface {
	Floors() *floorset.FloorSet
	Call(from floorset.Floor, passenger elevcall.Passenger, chooseFloor func() floorset.Floor) *completion.Handle[elevcall.Outcome]
}

type Agent struct {
	name      string
	clearance elevconsts.Clearance
	caller    Caller
	floors    *floorset.FloorSet

	rng          *rand.Rand
	workDuration time.Duration
	maxTrips     int

	floor floorset.Floor
	trips int
	log   zerolog.Logger
}

type Option func(*Agent)

func WithWorkDuration(duration time.Duration) Option {
	return func(a *Agent) { a.workDuration = duration }
}

func WithSeed(seed int64) Option {
	return func(a *Agent) { a.rng = rand.New(rand.NewSource(seed)) }
}

// WithMaxTrips makes the agent leave after n completed rides. Zero means never.
func WithMaxTrips(n int) Option {
	return func(a *Agent) { a.maxTrips = n }
}

// New places the agent on the base floor. An empty name is replaced by a
// random one.
func New(name string, clearance elevconsts.Clearance, caller Caller, opts ...Option) (*Agent, error) {
	if !clearance.Valid() {
		return nil, fmt.Errorf("agent %q: unknown clearance level %v", name, clearance)
	}
	if name == "" {
		name = randomstring.EnglishFrequencyString(NAME_DEFAULT_LEN)
		logger.GetLogger().Warn().Msgf("No agent name provided, generated random name \"%v\"", name)
	}

	a := &Agent{
		name:         name,
		clearance:    clearance,
		caller:       caller,
		floors:       caller.Floors(),
		workDuration: elevconsts.WORK_DURATION,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.rng == nil {
		a.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	a.floor = a.floors.Base()
	a.log = logger.Component("agent").With().Str("agent", name).Logger()
	return a, nil
}

func (a *Agent) Name() string {
	return a.name
}

func (a *Agent) Clearance() elevconsts.Clearance {
	return a.clearance
}

// Floor is only meaningful while Run is not executing.
func (a *Agent) Floor() floorset.Floor {
	return a.floor
}

func (a *Agent) Trips() int {
	return a.trips
}

func (a *Agent) String() string {
	return "Agent " + a.name
}

// Run alternates between local work and elevator rides until ctx is done,
// the elevator closes or the trip limit is reached. Only unexpected failures
// are returned.
func (a *Agent) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			a.log.Info().Msgf("%v could not finish their job, as the base is closed.", a)
			return nil
		}

		switch cmd := a.decide().Value.(type) {
		case elevcmd.QuitCommand:
			a.log.Info().Msgf("%v is done for the day after %d rides.", a, a.trips)
			return nil

		case elevcmd.WorkCommand:
			a.log.Info().Msgf("%v is going around and doing their job in the base.", a)
			if err := elevtimer.Sleep(ctx, cmd.Duration); err != nil {
				a.log.Info().Msgf("%v could not finish their job, as the base is closed.", a)
				return nil
			}

		case elevcmd.RideCommand:
			err := a.ride(ctx, cmd.From)
			switch {
			case err == nil:
			case errors.Is(err, elevcall.ErrClosed):
				a.log.Info().Msgf("%v was kicked out of the elevator, because it was closed.", a)
				return nil
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				a.log.Info().Msgf("%v could not finish their job, as the base is closed.", a)
				return nil
			default:
				return fmt.Errorf("%v: %w", a, err)
			}
		}
	}
}

func (a *Agent) decide() elevcmd.AgentCommand {
	if a.maxTrips > 0 && a.trips >= a.maxTrips {
		return elevcmd.AgentCommand{Value: elevcmd.QuitCommand{}}
	}
	if a.rng.Intn(DECISION_RANGE) < DECISION_RANGE-RIDE_ODDS {
		return elevcmd.AgentCommand{Value: elevcmd.WorkCommand{Duration: a.workDuration}}
	}
	return elevcmd.AgentCommand{Value: elevcmd.RideCommand{From: a.floor}}
}

// chooseFloor picks uniformly among the floors other than from. It runs on the
// dispatcher goroutine while the agent is blocked waiting for the ride.
func (a *Agent) chooseFloor(from floorset.Floor) floorset.Floor {
	others := a.floors.Others(from)
	if len(others) == 0 {
		return from
	}
	next := others[a.rng.Intn(len(others))]
	a.log.Info().Msgf("%v gets in the elevator and presses the button for floor %v.", a, next)
	return next
}

func (a *Agent) ride(ctx context.Context, from floorset.Floor) error {
	a.log.Info().Msgf("%v calls the elevator.", a)

	outcome, err := a.caller.Call(from, a, func() floorset.Floor { return a.chooseFloor(from) }).Wait(ctx)
	if err != nil {
		return err
	}

	switch outcome.Kind {
	case elevcall.Arrived:
		a.log.Info().Msgf("%v reached floor %v successfully.", a, outcome.Floor)
		a.floor = outcome.Floor
		a.trips++

	case elevcall.Denied:
		a.log.Info().Msgf("%v was not allowed to leave the elevator at floor %v because of missing required access level.", a, outcome.Floor)
		a.log.Info().Msgf("%v waits to get back to the floor they got on the elevator.", a)
		floor, err := outcome.Leave.Wait(ctx)
		if err != nil {
			return err
		}
		a.log.Info().Msgf("%v left the elevator.", a)
		a.floor = floor
	}
	return nil
}
