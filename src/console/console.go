package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-logr/logr"

	"elevdispatch/src/config"
	"elevdispatch/src/controller"
	"elevdispatch/src/dispatcher"
	"elevdispatch/src/elev"
	"elevdispatch/src/logging"
	"elevdispatch/src/types"
)

// Interpreter executes console commands against a controller and writes their results to out.
type Interpreter struct {
	ctrl   *controller.Controller
	cfg    config.Config
	out    io.Writer
	logger logr.Logger
}

func NewInterpreter(ctrl *controller.Controller, cfg config.Config, out io.Writer, logger logr.Logger) *Interpreter {
	return &Interpreter{
		ctrl:   ctrl,
		cfg:    cfg,
		out:    out,
		logger: logger.WithName("console"),
	}
}

// Run executes r line by line until it is exhausted or ctx is done. Blank lines and lines starting
// with '#' are ignored. A bad line is reported and skipped.
func (i *Interpreter) Run(ctx context.Context, r io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return ctx.Err()
				}
			}
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if err := i.ExecLine(line); err != nil {
				i.logger.Error(err, "Command failed", "line", line)
				fmt.Fprintf(i.out, "error: %v\n", err)
			}
		}
	}
}

func (i *Interpreter) ExecLine(line string) error {
	cmd, err := Parse(line, i.cfg)
	if err != nil {
		return err
	}
	return i.Exec(cmd)
}

func (i *Interpreter) Exec(cmd Command) error {
	i.logger.V(logging.DEBUG).Info("Executing command", "op", cmd.Op, "kind", cmd.Kind.String())
	switch cmd.Op {
	case OpUp:
		i.ctrl.RoutePassengerUp(cmd.Request)
		i.queued(cmd.Request)
	case OpDown:
		i.ctrl.RoutePassengerDown(cmd.Request)
		i.queued(cmd.Request)
	case OpService:
		i.ctrl.RouteService(cmd.Request)
		i.queued(cmd.Request)
	case OpRoute:
		if err := i.ctrl.Route(cmd.Request); err != nil {
			return err
		}
		i.queued(cmd.Request)
	case OpRun:
		if cmd.All {
			passenger, service := i.ctrl.RunAll()
			i.report(types.Passenger, passenger)
			i.report(types.Service, service)
		} else if cmd.Kind == types.Service {
			i.report(types.Service, i.ctrl.RunServiceBatch())
		} else {
			i.report(types.Passenger, i.ctrl.RunPassengerBatch())
		}
		PrintStatus(i.out, i.ctrl.Status())
	case OpEmergency:
		dropped := i.ctrl.TriggerEmergency()
		fmt.Fprintf(i.out, "emergency: dropped %d pending requests\n", dropped)
		PrintStatus(i.out, i.ctrl.Status())
	case OpStatus:
		PrintStatus(i.out, i.ctrl.Status())
	case OpPlan:
		plan, err := i.ctrl.Plan(cmd.Kind)
		if err != nil {
			return err
		}
		eta, err := i.ctrl.Estimate(cmd.Kind)
		if err != nil {
			return err
		}
		fmt.Fprintf(i.out, "%s plan: %v eta %s\n", cmd.Kind, plan, eta)
	default:
		return fmt.Errorf("%w: op %d", ErrUnknownCommand, cmd.Op)
	}
	return nil
}

func (i *Interpreter) queued(req types.Request) {
	fmt.Fprintf(i.out, "queued %s %s\n", req.Kind, req)
}

func (i *Interpreter) report(kind types.Kind, r dispatcher.Report) {
	fmt.Fprintf(i.out, "%s: served=%d skipped=%d preempted=%t\n", kind, r.Served, r.Skipped, r.Preempted)
}

// PrintStatus writes one line per unit.
func PrintStatus(w io.Writer, statuses []elev.Status) {
	for _, s := range statuses {
		fmt.Fprintln(w, s.String())
	}
}

func Usage() string {
	return usage
}
