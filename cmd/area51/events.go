package main

import (
	"github.com/szymonmasternak/area51-elevator/internal/elevevent"
)

// logEvent narrates the dispatcher. It runs on the dispatcher goroutine.
func logEvent(event elevevent.ElevatorEvent) {
	switch ev := event.Value.(type) {
	case elevevent.TravelEvent:
		Logger.Info().Msgf("The elevator is going from floor %v to floor %v.", ev.From, ev.To)
	case elevevent.ArrivalEvent:
		Logger.Info().Msgf("The elevator arrived at floor %v.", ev.Floor)
	case elevevent.AccessDeniedEvent:
		Logger.Info().Msgf("Agent %v is not allowed on floor %v and is taken back to floor %v.", ev.Agent, ev.Floor, ev.Origin)
	case elevevent.ReturnEvent:
		Logger.Info().Msgf("Agent %v is back at floor %v.", ev.Agent, ev.Floor)
	case elevevent.DisembarkEvent:
		Logger.Info().Msgf("Agent %v leaves the elevator at floor %v.", ev.Agent, ev.Floor)
	case elevevent.BoardEvent:
		Logger.Info().Msgf("Agent %v boards at floor %v for floor %v.", ev.Agent, ev.Floor, ev.Destination)
	case elevevent.ButtonPressEvent:
		Logger.Debug().Bool("priority", ev.Priority).Msgf("Button for floor %v pressed.", ev.Floor)
	case elevevent.DoorsClosingEvent:
		Logger.Debug().Msgf("Doors closing at floor %v.", ev.Floor)
	case elevevent.EvictEvent:
		Logger.Info().Msgf("Agent %v was kicked out of the elevator, because it was closed.", ev.Agent)
	case elevevent.DiscardEvent:
		if ev.Agent != "" {
			Logger.Info().Msgf("The call of agent %v was dropped, because the elevator was closed.", ev.Agent)
		} else {
			Logger.Debug().Msgf("Button call for floor %v dropped.", ev.Floor)
		}
	case elevevent.RejectEvent:
		Logger.Warn().Err(ev.Err).Msgf("Call of agent %v at floor %v rejected.", ev.Agent, ev.Floor)
	default:
		Logger.Warn().Msgf("Unknown elevator event %v", event.EventType())
	}
}
