package elevevent

import (
	"github.com/szymonmasternak/area51-elevator/internal/floorset"
)

type ElevatorEvent struct {
	//Golang doesnt support union types,
	//so we have to pass any of the below
	//structs
	Value any
}

type TravelEvent struct {
	From floorset.Floor
	To   floorset.Floor
}

type ArrivalEvent struct {
	Floor floorset.Floor
}

type AccessDeniedEvent struct {
	Agent  string
	Floor  floorset.Floor
	Origin floorset.Floor
}

// Agent was taken back to its origin floor after a denial and got off there
type ReturnEvent struct {
	Agent string
	Floor floorset.Floor
}

type DisembarkEvent struct {
	Agent string
	Floor floorset.Floor
}

type BoardEvent struct {
	Agent       string
	Floor       floorset.Floor
	Destination floorset.Floor
}

// Priority is set for the retry queued at the front after an access denial
type ButtonPressEvent struct {
	Floor    floorset.Floor
	Priority bool
}

type DoorsClosingEvent struct {
	Floor floorset.Floor
}

// Agent was still aboard when the elevator closed
type EvictEvent struct {
	Agent string
}

// Queued call dropped on shutdown, Agent is empty for button calls
type DiscardEvent struct {
	Agent string
	Floor floorset.Floor
}

// Call refused because its origin or destination is not a usable floor
type RejectEvent struct {
	Agent string
	Floor floorset.Floor
	Err   error
}

func Wrap(value any) ElevatorEvent {
	return ElevatorEvent{Value: value}
}

func (e *ElevatorEvent) EventType() string {
	switch e.Value.(type) {
	case TravelEvent:
		return "TravelEvent"
	case ArrivalEvent:
		return "ArrivalEvent"
	case AccessDeniedEvent:
		return "AccessDeniedEvent"
	case ReturnEvent:
		return "ReturnEvent"
	case DisembarkEvent:
		return "DisembarkEvent"
	case BoardEvent:
		return "BoardEvent"
	case ButtonPressEvent:
		return "ButtonPressEvent"
	case DoorsClosingEvent:
		return "DoorsClosingEvent"
	case EvictEvent:
		return "EvictEvent"
	case DiscardEvent:
		return "DiscardEvent"
	case RejectEvent:
		return "RejectEvent"
	default:
		return "UnknownEvent"
	}
}
