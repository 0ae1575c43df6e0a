package simulator

import "fmt"

// Departure places one vehicle on the road network.
type Departure struct {
	ID     string  `json:"id" yaml:"id"`
	Depart int64   `json:"depart" yaml:"depart"`
	Link   string  `json:"link" yaml:"link"`
	Offset float64 `json:"offset" yaml:"offset"`
}

// Config describes the road network and the vehicles entering it. File
// takes precedence over Grid.
type Config struct {
	Grid     GridConfig  `json:"grid"`
	File     string      `json:"file"`
	Vehicles []Departure `json:"vehicles"`
	Fleet    FleetConfig `json:"fleet"`
}

// SetDefaults applies default values.
func (c *Config) SetDefaults() {
	if c.File == "" {
		if c.Grid.Rows == 0 {
			c.Grid.Rows = 5
		}
		if c.Grid.Cols == 0 {
			c.Grid.Cols = 5
		}
		if c.Grid.LinkLength == 0 {
			c.Grid.LinkLength = 500
		}
		if c.Grid.Speed == 0 {
			c.Grid.Speed = 13.89
		}
	}
	if c.Fleet.Size > 0 {
		if c.Fleet.Prefix == "" {
			c.Fleet.Prefix = "veh"
		}
		if c.Fleet.Depart == 0 {
			c.Fleet.Depart = 1
		}
	}
}

// Validate checks the parts of the configuration that do not need the road.
func (c Config) Validate() error {
	if c.File == "" && (c.Grid.LinkLength <= 0 || c.Grid.Speed <= 0) {
		return fmt.Errorf("network.grid needs positive link_length and speed")
	}
	if c.Fleet.Size < 0 {
		return fmt.Errorf("network.fleet.size must not be negative")
	}
	for _, d := range c.Vehicles {
		if d.ID == "" {
			return fmt.Errorf("network.vehicles: missing id")
		}
		if d.Depart < 1 {
			return fmt.Errorf("network.vehicles %s: depart must be at least 1", d.ID)
		}
	}
	return nil
}

// BuildRoad loads the road network file or generates the grid.
func (c Config) BuildRoad() (*Road, error) {
	if c.File != "" {
		return LoadRoad(c.File)
	}
	return NewGrid(c.Grid)
}

// Departures returns the configured vehicles followed by the generated fleet.
func (c Config) Departures(r *Road) []Departure {
	out := append([]Departure(nil), c.Vehicles...)
	return append(out, GenerateFleet(c.Fleet, r)...)
}
