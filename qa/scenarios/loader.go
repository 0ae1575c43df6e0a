package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/drt/core/model"
	"github.com/kilianp07/drt/simulator"
)

type LocationDef struct {
	Link   string  `yaml:"link"`
	Offset float64 `yaml:"offset"`
}

func (l LocationDef) ToModel() model.Location {
	return model.Location{Link: l.Link, Offset: l.Offset}
}

type RequestDef struct {
	ID      string      `yaml:"id"`
	Call    int64       `yaml:"call"`
	Request int64       `yaml:"request"`
	From    LocationDef `yaml:"from"`
	To      LocationDef `yaml:"to"`
}

func (r RequestDef) ToModel() *model.Request {
	req := r.Request
	if req == 0 {
		req = r.Call
	}
	return model.NewRequest(r.ID, r.Call, req, r.From.ToModel(), r.To.ToModel())
}

type DispatchDef struct {
	Capacity int   `yaml:"capacity"`
	ShiftEnd int64 `yaml:"shift_end"`
}

// Expected lists the request counts per final state and, optionally,
// fleet level checks.
type Expected struct {
	Arrived      int  `yaml:"arrived"`
	Unsuccessful int  `yaml:"unsuccessful"`
	Unallocated  int  `yaml:"unallocated"`
	Shared       bool `yaml:"shared,omitempty"`
}

type Scenario struct {
	Name        string                `yaml:"name"`
	Description string                `yaml:"description,omitempty"`
	Dispatch    DispatchDef           `yaml:"dispatch"`
	Grid        simulator.GridConfig  `yaml:"grid"`
	Vehicles    []simulator.Departure `yaml:"vehicles"`
	Requests    []RequestDef          `yaml:"requests"`
	// FailCommands makes every mirrored command of these vehicles fail to
	// publish.
	FailCommands []string `yaml:"fail_commands,omitempty"`
	MaxTicks     int64    `yaml:"max_ticks,omitempty"`
	Expected     Expected `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario name is required", path)
	}
	if len(sc.Vehicles) == 0 {
		return nil, fmt.Errorf("%s: at least one vehicle is required", path)
	}
	return &sc, nil
}
