package elevconsts

import (
	"fmt"
	"strings"
	"time"
)

// Floors of the base, bottom to top.
const (
	GroundFloor       = "G"
	NuclearFloor      = "S"
	ExperimentalFloor = "T1"
	AlienFloor        = "T2"
)

const (
	TIME_ON_FLOOR = 1000 * time.Millisecond
	IDLE_TICK     = 1 * time.Millisecond
	WORK_DURATION = 2000 * time.Millisecond
	RUN_DURATION  = 60 * time.Second
)

type Dirn int

func (d Dirn) String() string {
	switch d {
	case Up:
		return "Up"
	case Down:
		return "Down"
	case Stop:
		return "Stop"
	default:
		return "Undefined"
	}
}

const (
	Down Dirn = -1
	Stop Dirn = 0
	Up   Dirn = 1
)

type ElevatorStatus int

const (
	Closed ElevatorStatus = iota // 0
	Waiting
	Moving
)

func (es ElevatorStatus) String() string {
	switch es {
	case Closed:
		return "ES_Closed"
	case Waiting:
		return "ES_Waiting"
	case Moving:
		return "ES_Moving"
	default:
		return "ES_UNDEFINED"
	}
}

// Clearance is an agent's access tier. Higher tiers include every floor of
// the lower ones.
type Clearance int

const (
	Confidential Clearance = iota + 1
	Secret
	TopSecret
)

func (c Clearance) String() string {
	switch c {
	case Confidential:
		return "confidential"
	case Secret:
		return "secret"
	case TopSecret:
		return "top_secret"
	default:
		return fmt.Sprintf("clearance(%d)", int(c))
	}
}

func (c Clearance) Valid() bool {
	return c >= Confidential && c <= TopSecret
}

func ParseClearance(s string) (Clearance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "confidential":
		return Confidential, nil
	case "secret":
		return Secret, nil
	case "top_secret", "topsecret", "top-secret":
		return TopSecret, nil
	default:
		return 0, fmt.Errorf("unknown clearance level %q", s)
	}
}
