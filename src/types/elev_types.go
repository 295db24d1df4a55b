package types

// MotionState is what the car is doing right now. Up and Down are only
// reported while the car is in transit between floors.
type MotionState int

const (
	Idle MotionState = iota
	Up
	Down
	Emergency
)

func (m MotionState) String() string {
	switch m {
	case Idle:
		return "Idle"
	case Up:
		return "Up"
	case Down:
		return "Down"
	case Emergency:
		return "Emergency"
	}
	return "Unknown"
}

// Opposite returns the reverse sweep direction. Idle and Emergency have none.
func (m MotionState) Opposite() MotionState {
	switch m {
	case Up:
		return Down
	case Down:
		return Up
	}
	return Idle
}

// DirectionBetween returns Up if to is above from, Down if below and Idle otherwise.
func DirectionBetween(from, to int) MotionState {
	switch {
	case to > from:
		return Up
	case to < from:
		return Down
	}
	return Idle
}

type DoorState int

const (
	DoorClosed DoorState = iota
	DoorOpen
)

func (d DoorState) String() string {
	if d == DoorOpen {
		return "Open"
	}
	return "Closed"
}

// Origin tells whether a request was made from a hall panel or from inside the car.
type Origin int

const (
	Inside Origin = iota
	Outside
)

func (o Origin) String() string {
	switch o {
	case Inside:
		return "Inside"
	case Outside:
		return "Outside"
	}
	return "Unknown"
}

// Kind selects the elevator unit, and with it the dispatch policy, that serves a request.
type Kind int

const (
	Passenger Kind = iota
	Service
)

func (k Kind) String() string {
	switch k {
	case Passenger:
		return "passenger"
	case Service:
		return "service"
	}
	return "unknown"
}

// ParseKind accepts the names produced by Kind.String.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "passenger":
		return Passenger, true
	case "service":
		return Service, true
	}
	return 0, false
}
