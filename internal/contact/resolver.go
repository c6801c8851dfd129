package contact

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/kinematics"
	"github.com/san-kum/nonsmooth/internal/logging"
	"golang.org/x/sync/errgroup"
)

// Resolver evaluates all contour pairs of a system at the current tree
// context. Pairs are independent and run on a bounded worker pool; Resolve
// returns only after every pair has finished.
type Resolver struct {
	tree   *kinematics.Tree
	cfg    SearchConfig
	logger *log.Logger
}

func NewResolver(tree *kinematics.Tree, cfg SearchConfig, logger *log.Logger) *Resolver {
	return &Resolver{tree: tree, cfg: cfg, logger: logging.OrDiscard(logger)}
}

func (r *Resolver) Config() SearchConfig { return r.cfg }

// Resolve returns the points of every pair, indexed like pairs. Search
// failures are logged and leave the affected slots invalid; only
// cancellation is returned as an error.
func (r *Resolver) Resolve(ctx context.Context, pairs []*Pair) ([][]Point, error) {
	// frame evaluation mutates the tree caches, so it happens before the
	// workers start and they only see copies
	states := make(map[kinematics.FrameID]kinematics.FrameState)
	for _, p := range pairs {
		for _, f := range []kinematics.FrameID{p.A.Frame(), p.B.Frame()} {
			if _, ok := states[f]; !ok {
				states[f] = r.tree.Frame(f)
			}
		}
	}

	results := make([][]Point, len(pairs))
	failures := make([]error, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	if r.cfg.Workers > 0 {
		g.SetLimit(r.cfg.Workers)
	}
	for i, p := range pairs {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], failures[i] = p.Resolve(states[p.A.Frame()], states[p.B.Frame()], r.cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, err := range failures {
		if err == nil {
			continue
		}
		var se *dynamo.SearchError
		if errors.As(err, &se) {
			r.logger.Warn("contact search diverged, contact inactive for this step",
				"pair", pairs[i].Name, "iterations", se.Iterations, "residual", se.Residual)
			continue
		}
		return nil, err
	}
	return results, nil
}
