package simulator

import (
	"fmt"
	"math"
	"os"
	"sync"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/drt/core/model"
)

// Link is a directed road segment between two named junctions.
type Link struct {
	ID   string `json:"id" yaml:"id"`
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	// Length is in metres and Speed in metres per second.
	Length float64 `json:"length" yaml:"length"`
	Speed  float64 `json:"speed" yaml:"speed"`
}

// TravelTime is the time needed to drive the whole link.
func (l Link) TravelTime() float64 { return l.Length / l.Speed }

// RoadFile is the yaml layout of a road network file.
type RoadFile struct {
	Links []Link `yaml:"links"`
}

// Road is a directed road network. Junctions are graph nodes and links are
// edges weighted by travel time; shortest paths are computed once with
// Dijkstra over every pair of junctions.
type Road struct {
	links map[string]*Link
	ids   []string
	nodes map[string]int64
	edges map[[2]int64]*Link
	paths path.AllShortest

	mu   sync.Mutex
	dist map[[2]int64]float64
}

// NewRoad builds a road network from links.
func NewRoad(links []Link) (*Road, error) {
	if len(links) == 0 {
		return nil, fmt.Errorf("road: no links")
	}
	r := &Road{
		links: make(map[string]*Link, len(links)),
		nodes: make(map[string]int64),
		edges: make(map[[2]int64]*Link, len(links)),
		dist:  make(map[[2]int64]float64),
	}
	g := simple.NewWeightedDirectedGraph(0, math.Inf(1))
	node := func(name string) int64 {
		id, ok := r.nodes[name]
		if !ok {
			id = int64(len(r.nodes))
			r.nodes[name] = id
			g.AddNode(simple.Node(id))
		}
		return id
	}
	for i := range links {
		l := links[i]
		switch {
		case l.ID == "":
			return nil, fmt.Errorf("road: link %d has no id", i)
		case l.From == "" || l.To == "":
			return nil, fmt.Errorf("road: link %s needs from and to", l.ID)
		case l.From == l.To:
			return nil, fmt.Errorf("road: link %s is a loop", l.ID)
		case l.Length <= 0 || l.Speed <= 0:
			return nil, fmt.Errorf("road: link %s needs positive length and speed", l.ID)
		}
		if _, dup := r.links[l.ID]; dup {
			return nil, fmt.Errorf("road: duplicate link %s", l.ID)
		}
		u, v := node(l.From), node(l.To)
		if prev, dup := r.edges[[2]int64{u, v}]; dup {
			return nil, fmt.Errorf("road: links %s and %s join the same junctions", prev.ID, l.ID)
		}
		r.links[l.ID] = &l
		r.ids = append(r.ids, l.ID)
		r.edges[[2]int64{u, v}] = &l
		g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(u), simple.Node(v), l.TravelTime()))
	}
	r.paths = path.DijkstraAllPaths(g)
	return r, nil
}

// LoadRoad reads a yaml road network file.
func LoadRoad(file string) (*Road, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var rf RoadFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("road %s: %w", file, err)
	}
	return NewRoad(rf.Links)
}

// GridConfig describes a rectangular grid of two-way streets.
type GridConfig struct {
	Rows       int     `json:"rows" yaml:"rows"`
	Cols       int     `json:"cols" yaml:"cols"`
	LinkLength float64 `json:"link_length" yaml:"link_length"`
	Speed      float64 `json:"speed" yaml:"speed"`
}

// GridNode names the junction at row i, column j.
func GridNode(i, j int) string { return fmt.Sprintf("r%dc%d", i, j) }

// GridLink names the link from junction a to junction b.
func GridLink(a, b string) string { return a + "-" + b }

// NewGrid builds a rows x cols grid with one link per direction between
// neighbouring junctions.
func NewGrid(cfg GridConfig) (*Road, error) {
	if cfg.Rows < 1 || cfg.Cols < 1 || cfg.Rows*cfg.Cols < 2 {
		return nil, fmt.Errorf("grid: need at least two junctions")
	}
	var links []Link
	add := func(a, b string) {
		links = append(links,
			Link{ID: GridLink(a, b), From: a, To: b, Length: cfg.LinkLength, Speed: cfg.Speed},
			Link{ID: GridLink(b, a), From: b, To: a, Length: cfg.LinkLength, Speed: cfg.Speed})
	}
	for i := 0; i < cfg.Rows; i++ {
		for j := 0; j < cfg.Cols; j++ {
			if j+1 < cfg.Cols {
				add(GridNode(i, j), GridNode(i, j+1))
			}
			if i+1 < cfg.Rows {
				add(GridNode(i, j), GridNode(i+1, j))
			}
		}
	}
	return NewRoad(links)
}

// Links returns the link ids in declaration order.
func (r *Road) Links() []string { return append([]string(nil), r.ids...) }

// Link returns the link with the given id.
func (r *Road) Link(id string) (Link, bool) {
	l, ok := r.links[id]
	if !ok {
		return Link{}, false
	}
	return *l, true
}

// Junctions returns the number of junctions.
func (r *Road) Junctions() int { return len(r.nodes) }

// TotalLength returns the summed length of every link.
func (r *Road) TotalLength() float64 {
	var sum float64
	for _, l := range r.links {
		sum += l.Length
	}
	return sum
}

// TravelTime returns the shortest travel time in seconds from one location
// to another, or +Inf when no route exists.
func (r *Road) TravelTime(from, to model.Location) float64 {
	return r.measure(from, to, func(l *Link, d float64) float64 { return d / l.Speed }, r.nodeTime)
}

// Distance returns the length of the fastest route in metres, or +Inf when
// no route exists.
func (r *Road) Distance(from, to model.Location) float64 {
	return r.measure(from, to, func(_ *Link, d float64) float64 { return d }, r.nodeDist)
}

func (r *Road) measure(from, to model.Location, part func(*Link, float64) float64, between func(u, v int64) float64) float64 {
	lf, ok := r.links[from.Link]
	if !ok {
		return math.Inf(1)
	}
	lt, ok := r.links[to.Link]
	if !ok {
		return math.Inf(1)
	}
	a, b := clamp(from.Offset, lf.Length), clamp(to.Offset, lt.Length)
	if lf == lt && b >= a {
		return part(lf, b-a)
	}
	mid := between(r.nodes[lf.To], r.nodes[lt.From])
	return part(lf, lf.Length-a) + mid + part(lt, b)
}

func (r *Road) nodeTime(u, v int64) float64 {
	if u == v {
		return 0
	}
	return r.paths.Weight(u, v)
}

func (r *Road) nodeDist(u, v int64) float64 {
	if u == v {
		return 0
	}
	key := [2]int64{u, v}
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.dist[key]; ok {
		return d
	}
	p, _, _ := r.paths.Between(u, v)
	d := math.Inf(1)
	if len(p) > 0 {
		d = 0
		for i := 1; i < len(p); i++ {
			d += r.edges[[2]int64{p[i-1].ID(), p[i].ID()}].Length
		}
	}
	r.dist[key] = d
	return d
}

// next returns the link to enter at junction u on the way to goal, or nil
// when goal cannot be reached.
func (r *Road) next(u int64, goal *Link) *Link {
	start := r.nodes[goal.From]
	if u == start {
		return goal
	}
	p, _, _ := r.paths.Between(u, start)
	if len(p) < 2 {
		return nil
	}
	return r.edges[[2]int64{u, p[1].ID()}]
}

func clamp(offset, length float64) float64 {
	return math.Max(0, math.Min(offset, length))
}
