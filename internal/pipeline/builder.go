package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/san-kum/atomsim/internal/ecs"
)

// Stage is one step of the per-tick computation.
type Stage interface {
	Run(ctx context.Context, w *ecs.World) error
}

// StageFunc adapts a function to the Stage interface.
type StageFunc func(ctx context.Context, w *ecs.World) error

func (f StageFunc) Run(ctx context.Context, w *ecs.World) error { return f(ctx, w) }

// StageObserver receives the wall time of every completed stage.
type StageObserver func(stage string, elapsed time.Duration, err error)

type node struct {
	name  string
	stage Stage
	deps  []string
}

// Builder collects named stages and their depends-on edges.
type Builder struct {
	nodes    []node
	index    map[string]int
	err      error
	logger   *slog.Logger
	observer StageObserver
}

func NewBuilder() *Builder {
	return &Builder{
		index:  make(map[string]int),
		logger: slog.Default(),
	}
}

// WithLogger sets the logger handed to the dispatcher.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	if l != nil {
		b.logger = l
	}
	return b
}

// WithObserver installs a per-stage timing callback.
func (b *Builder) WithObserver(o StageObserver) *Builder {
	b.observer = o
	return b
}

// Add registers stage under name, to run after every stage named in deps.
// Dependencies may be registered later; they are resolved by Build.
func (b *Builder) Add(name string, stage Stage, deps ...string) *Builder {
	if b.err != nil {
		return b
	}
	if strings.TrimSpace(name) == "" {
		b.err = ErrEmptyName
		return b
	}
	if _, ok := b.index[name]; ok {
		b.err = fmt.Errorf("%q: %w", name, ErrDuplicateStage)
		return b
	}
	b.index[name] = len(b.nodes)
	b.nodes = append(b.nodes, node{name: name, stage: stage, deps: append([]string(nil), deps...)})
	return b
}

// Has reports whether a stage called name was added.
func (b *Builder) Has(name string) bool {
	_, ok := b.index[name]
	return ok
}

// Build validates the graph and levels it with Kahn's algorithm.
// Stages inside a level keep their registration order.
func (b *Builder) Build() (*Dispatcher, error) {
	if b.err != nil {
		return nil, b.err
	}

	n := len(b.nodes)
	indegree := make([]int, n)
	dependents := make([][]int, n)
	for i, nd := range b.nodes {
		seen := make(map[string]struct{}, len(nd.deps))
		for _, dep := range nd.deps {
			if _, dup := seen[dep]; dup {
				continue
			}
			seen[dep] = struct{}{}
			j, ok := b.index[dep]
			if !ok {
				return nil, fmt.Errorf("stage %q depends on %q: %w", nd.name, dep, ErrUnknownDependency)
			}
			indegree[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	level := make([]int, n)
	frontier := make([]int, 0, n)
	for i := range b.nodes {
		if indegree[i] == 0 {
			frontier = append(frontier, i)
		}
	}

	visited := 0
	maxLevel := 0
	for len(frontier) > 0 {
		next := make([]int, 0)
		for _, i := range frontier {
			visited++
			for _, j := range dependents[i] {
				if level[i]+1 > level[j] {
					level[j] = level[i] + 1
				}
				indegree[j]--
				if indegree[j] == 0 {
					next = append(next, j)
				}
			}
			if level[i] > maxLevel {
				maxLevel = level[i]
			}
		}
		frontier = next
	}

	if visited != n {
		stuck := make([]string, 0)
		for i, d := range indegree {
			if d > 0 {
				stuck = append(stuck, b.nodes[i].name)
			}
		}
		return nil, fmt.Errorf("stages %v: %w", stuck, ErrCyclicDependency)
	}

	levels := make([][]node, 0, maxLevel+1)
	if n > 0 {
		levels = make([][]node, maxLevel+1)
		for i, nd := range b.nodes {
			levels[level[i]] = append(levels[level[i]], nd)
		}
	}

	return &Dispatcher{
		levels:   levels,
		logger:   b.logger,
		observer: b.observer,
	}, nil
}
