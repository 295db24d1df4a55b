package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"k8s.io/utils/ptr"

	"elevdispatch/src/config"
	"elevdispatch/src/types"
)

var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrUsage           = errors.New("bad arguments")
	ErrFloorOutOfRange = errors.New("floor out of range")
)

type Op int

const (
	OpUp Op = iota
	OpDown
	OpService
	OpRoute
	OpRun
	OpEmergency
	OpStatus
	OpPlan
)

// Command is one parsed console line. Request is set for the enqueue ops, Kind for route, run and plan.
type Command struct {
	Op      Op
	Kind    types.Kind
	All     bool
	Request types.Request
}

const usage = `commands:
  up <inside|outside> <from> [to]
  down <inside|outside> <from> [to]
  service <inside|outside> <from> [to]
  route <passenger|service> <inside|outside> <from> [to]
  run <passenger|service|all>
  plan <passenger|service>
  emergency
  status`

// Parse reads a single command. Floors outside cfg's bounds are rejected here since the controller
// accepts any floor.
func Parse(line string, cfg config.Config) (Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty line", ErrUsage)
	}
	name, args := fields[0], fields[1:]

	switch name {
	case "up", "down", "service":
		kind, op := types.Passenger, OpUp
		switch name {
		case "down":
			op = OpDown
		case "service":
			kind, op = types.Service, OpService
		}
		req, err := parseRequest(kind, args, cfg)
		if err != nil {
			return Command{}, fmt.Errorf("%s: %w", name, err)
		}
		return Command{Op: op, Kind: kind, Request: req}, nil

	case "route":
		if len(args) == 0 {
			return Command{}, fmt.Errorf("route: %w: missing kind", ErrUsage)
		}
		kind, err := parseKind(args[0])
		if err != nil {
			return Command{}, fmt.Errorf("route: %w", err)
		}
		req, err := parseRequest(kind, args[1:], cfg)
		if err != nil {
			return Command{}, fmt.Errorf("route: %w", err)
		}
		return Command{Op: OpRoute, Kind: kind, Request: req}, nil

	case "run":
		if len(args) != 1 {
			return Command{}, fmt.Errorf("run: %w: want one of passenger, service, all", ErrUsage)
		}
		if args[0] == "all" {
			return Command{Op: OpRun, All: true}, nil
		}
		kind, err := parseKind(args[0])
		if err != nil {
			return Command{}, fmt.Errorf("run: %w", err)
		}
		return Command{Op: OpRun, Kind: kind}, nil

	case "plan":
		if len(args) != 1 {
			return Command{}, fmt.Errorf("plan: %w: want passenger or service", ErrUsage)
		}
		kind, err := parseKind(args[0])
		if err != nil {
			return Command{}, fmt.Errorf("plan: %w", err)
		}
		return Command{Op: OpPlan, Kind: kind}, nil

	case "emergency", "status":
		if len(args) != 0 {
			return Command{}, fmt.Errorf("%s: %w: takes no arguments", name, ErrUsage)
		}
		if name == "emergency" {
			return Command{Op: OpEmergency}, nil
		}
		return Command{Op: OpStatus}, nil
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

func parseKind(s string) (types.Kind, error) {
	kind, ok := types.ParseKind(s)
	if !ok {
		return 0, fmt.Errorf("%w: unknown kind %q", ErrUsage, s)
	}
	return kind, nil
}

// parseRequest reads "<inside|outside> <from> [to]".
func parseRequest(kind types.Kind, args []string, cfg config.Config) (types.Request, error) {
	if len(args) < 2 || len(args) > 3 {
		return types.Request{}, fmt.Errorf("%w: want <inside|outside> <from> [to]", ErrUsage)
	}

	var origin types.Origin
	switch args[0] {
	case "inside":
		origin = types.Inside
	case "outside":
		origin = types.Outside
	default:
		return types.Request{}, fmt.Errorf("%w: origin must be inside or outside, got %q", ErrUsage, args[0])
	}

	from, err := parseFloor(args[1], cfg)
	if err != nil {
		return types.Request{}, err
	}
	var dest *int
	if len(args) == 3 {
		to, err := parseFloor(args[2], cfg)
		if err != nil {
			return types.Request{}, err
		}
		dest = ptr.To(to)
	}
	return types.NewRequest(kind, origin, from, dest), nil
}

func parseFloor(s string, cfg config.Config) (int, error) {
	floor, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: floor %q is not a number", ErrUsage, s)
	}
	if !cfg.InBounds(floor) {
		return 0, fmt.Errorf("%w: %d not in [%d, %d]", ErrFloorOutOfRange, floor, cfg.MinFloor, cfg.MaxFloor)
	}
	return floor, nil
}
