package elevcmd

import (
	"time"

	"github.com/szymonmasternak/area51-elevator/internal/floorset"
)

// AgentCommand is what an agent decided to do next.
type AgentCommand struct {
	//Golang doesnt support union types,
	//so we have to pass any of the below
	//structs
	Value any
}

// Unsupervised work somewhere on the current floor
type WorkCommand struct {
	Duration time.Duration
}

// Call the elevator from the current floor
type RideCommand struct {
	From floorset.Floor
}

// Leave the base for good
type QuitCommand struct {
}

func (e *AgentCommand) CommandType() string {
	switch e.Value.(type) {
	case WorkCommand:
		return "WorkCommand"
	case RideCommand:
		return "RideCommand"
	case QuitCommand:
		return "QuitCommand"
	default:
		return "UnknownCommand"
	}
}
