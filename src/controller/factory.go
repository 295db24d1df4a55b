package controller

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"

	"elevdispatch/src/config"
	"elevdispatch/src/dispatcher"
	"elevdispatch/src/elev"
	"elevdispatch/src/types"
)

var (
	ErrUnsupportedKind = errors.New("unsupported elevator kind")
	ErrIncompleteCar   = errors.New("car needs both a unit and a policy")
)

// Car pairs a unit with the policy that decides its stop order.
type Car struct {
	Unit   *elev.Unit
	Policy dispatcher.Policy
}

// CarFactory builds a car for a kind.
type CarFactory interface {
	Create(kind types.Kind) (Car, error)
}

type Factory struct {
	cfg    config.Config
	clock  clock.Clock
	logger logr.Logger
}

var _ CarFactory = &Factory{}

type FactoryOption func(*Factory)

func WithClock(clk clock.Clock) FactoryOption {
	return func(f *Factory) { f.clock = clk }
}

func WithFactoryLogger(logger logr.Logger) FactoryOption {
	return func(f *Factory) { f.logger = logger }
}

func NewFactory(cfg config.Config, opts ...FactoryOption) *Factory {
	f := &Factory{
		cfg:    cfg,
		clock:  clock.RealClock{},
		logger: logr.Discard(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns an idle car at the ground floor with its doors closed and no pending work.
func (f *Factory) Create(kind types.Kind) (Car, error) {
	var policy dispatcher.Policy
	switch kind {
	case types.Passenger:
		policy = dispatcher.NewPassengerPolicy(f.logger)
	case types.Service:
		policy = dispatcher.NewServicePolicy(f.logger)
	default:
		return Car{}, fmt.Errorf("%w: %d", ErrUnsupportedKind, int(kind))
	}
	unit := elev.NewUnit(kind, f.cfg, elev.WithClock(f.clock), elev.WithLogger(f.logger))
	return Car{Unit: unit, Policy: policy}, nil
}
