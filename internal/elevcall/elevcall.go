package elevcall

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/szymonmasternak/area51-elevator/internal/completion"
	"github.com/szymonmasternak/area51-elevator/internal/elevconsts"
	"github.com/szymonmasternak/area51-elevator/internal/floorset"
)

var (
	ErrClosed             = errors.New("elevator closed")
	ErrInvalidDestination = errors.New("invalid destination floor")
	ErrAlreadyAboard      = errors.New("passenger already aboard")
)

// Passenger is the agent behind a call. The elevator only keeps a reference,
// it never owns the agent. Passengers are told apart by Name.
type Passenger interface {
	Name() string
	Clearance() elevconsts.Clearance
}

// Call is a request for the elevator to visit a floor. It is either a
// ButtonCall or an *AgentCall.
type Call interface {
	Floor() floorset.Floor
	isCall()
}

type ButtonCall struct {
	floor floorset.Floor
}

func NewButtonCall(floor floorset.Floor) ButtonCall {
	return ButtonCall{floor: floor}
}

func (b ButtonCall) Floor() floorset.Floor {
	return b.floor
}

func (ButtonCall) isCall() {}

type OutcomeKind int

const (
	Arrived OutcomeKind = iota
	Denied
)

func (k OutcomeKind) String() string {
	switch k {
	case Arrived:
		return "Arrived"
	case Denied:
		return "Denied"
	default:
		return "Undefined"
	}
}

// Outcome is how a ride ended. For Denied, Floor is where access was refused
// and Leave settles once the passenger is back on its origin floor.
type Outcome struct {
	Kind  OutcomeKind
	Floor floorset.Floor
	Leave *completion.Handle[floorset.Floor]
}

type AgentCall struct {
	id        uuid.UUID
	origin    floorset.Floor
	passenger Passenger

	chooseFloor func() floorset.Floor
	destOnce    sync.Once
	destination floorset.Floor

	ride *completion.Handle[Outcome]

	mu    sync.Mutex
	leave *completion.Handle[floorset.Floor]
}

func NewAgentCall(origin floorset.Floor, passenger Passenger, chooseFloor func() floorset.Floor) *AgentCall {
	return &AgentCall{
		id:          uuid.New(),
		origin:      origin,
		passenger:   passenger,
		chooseFloor: chooseFloor,
		ride:        completion.New[Outcome](),
	}
}

func (c *AgentCall) isCall() {}

func (c *AgentCall) ID() uuid.UUID {
	return c.id
}

// Floor is where the agent waits, which is also its origin.
func (c *AgentCall) Floor() floorset.Floor {
	return c.origin
}

func (c *AgentCall) Origin() floorset.Floor {
	return c.origin
}

func (c *AgentCall) Passenger() Passenger {
	return c.passenger
}

// Destination runs the chooser on first use and caches the result for the
// life of the call.
func (c *AgentCall) Destination() floorset.Floor {
	c.destOnce.Do(func() {
		c.destination = c.chooseFloor()
	})
	return c.destination
}

func (c *AgentCall) Completion() *completion.Handle[Outcome] {
	return c.ride
}

// Arrive settles the ride at floor.
func (c *AgentCall) Arrive(floor floorset.Floor) bool {
	return c.ride.Succeed(Outcome{Kind: Arrived, Floor: floor})
}

// Deny settles the ride as Denied at floor and installs the leave handle that
// shutdown and Returned act on from now on. Only the first call creates it.
func (c *AgentCall) Deny(floor floorset.Floor) *completion.Handle[floorset.Floor] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.leave != nil {
		return c.leave
	}
	leave := completion.New[floorset.Floor]()
	c.ride.Succeed(Outcome{Kind: Denied, Floor: floor, Leave: leave})
	c.leave = leave
	return leave
}

// Returned settles the leave handle with the floor the agent got off at.
func (c *AgentCall) Returned(floor floorset.Floor) bool {
	c.mu.Lock()
	leave := c.leave
	c.mu.Unlock()

	if leave == nil {
		return false
	}
	return leave.Succeed(floor)
}

// Fail settles whichever handle the agent is currently waiting on.
func (c *AgentCall) Fail(err error) bool {
	c.mu.Lock()
	leave := c.leave
	c.mu.Unlock()

	if leave != nil {
		return leave.Fail(err)
	}
	return c.ride.Fail(err)
}
