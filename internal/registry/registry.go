package registry

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/quickdeals/internal/seed"
	"github.com/angelmondragon/quickdeals/internal/toolkit"
	"github.com/angelmondragon/quickdeals/pkg/config"
	"github.com/angelmondragon/quickdeals/pkg/db"
	"github.com/angelmondragon/quickdeals/pkg/logger"
)

// Database is one opened store and the toolkit bound to it.
type Database struct {
	Name      string
	Path      string
	Platforms []string

	Client  *db.Client
	Toolkit *toolkit.Toolkit
}

// Options configures Open.
type Options struct {
	Specs config.DatabaseSpecs
	Pool  db.Options

	// Seeder reseeds every database before it is exposed; nil skips seeding.
	Seeder    *seed.Seeder
	Platforms []string
	Products  []string

	Toolkit toolkit.Options
}

// Registry holds every configured database.
type Registry struct {
	dbs    []*Database
	byName map[string]*Database
}

// Open opens (and optionally seeds) every database concurrently. Any failure
// closes what was opened and is returned; callers treat it as fatal.
func Open(ctx context.Context, opts Options, logg *logger.Logger) (*Registry, error) {
	if len(opts.Specs) == 0 {
		return nil, fmt.Errorf("no databases configured")
	}
	if logg == nil {
		logg = logger.Nop()
	}

	paths := make(map[string]string, len(opts.Specs))
	for _, spec := range opts.Specs {
		if other, ok := paths[spec.Path]; ok {
			return nil, fmt.Errorf("databases %s and %s share path %s", other, spec.Name, spec.Path)
		}
		paths[spec.Path] = spec.Name
	}

	dbs := make([]*Database, len(opts.Specs))
	g, gctx := errgroup.WithContext(ctx)

	for i, spec := range opts.Specs {
		g.Go(func() error {
			d, err := openOne(gctx, spec, opts, logg)
			if err != nil {
				return fmt.Errorf("database %s (%s): %w", spec.Name, spec.Path, err)
			}
			dbs[i] = d
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		partial := &Registry{}
		for _, d := range dbs {
			if d != nil {
				partial.dbs = append(partial.dbs, d)
			}
		}
		return nil, multierr.Append(err, partial.Close())
	}

	r := &Registry{dbs: dbs, byName: make(map[string]*Database, len(dbs))}
	for _, d := range dbs {
		r.byName[d.Name] = d
	}
	return r, nil
}

func openOne(ctx context.Context, spec config.DatabaseSpec, opts Options, logg *logger.Logger) (*Database, error) {
	ctx = logg.WithDatabase(ctx, spec.Name)

	if opts.Seeder != nil {
		writer, err := db.Open(ctx, spec.Path, db.Options{MaxOpenConns: 1}, logg)
		if err != nil {
			return nil, err
		}
		_, seedErr := opts.Seeder.Seed(ctx, writer, PlanFor(spec, opts.Platforms, opts.Products))
		if err := multierr.Append(seedErr, writer.Close()); err != nil {
			return nil, err
		}
	}

	pool := opts.Pool
	pool.ReadOnly = true
	reader, err := db.Open(ctx, spec.Path, pool, logg)
	if err != nil {
		return nil, err
	}

	return &Database{
		Name:      spec.Name,
		Path:      spec.Path,
		Platforms: append([]string(nil), spec.Platforms...),
		Client:    reader,
		Toolkit:   toolkit.New(spec.Name, spec.Platforms, reader, opts.Toolkit, logg),
	}, nil
}

// PlanFor is the seed plan of one database: its own platforms when scoped,
// every platform otherwise.
func PlanFor(spec config.DatabaseSpec, platforms, products []string) seed.Plan {
	plan := seed.Plan{Platforms: platforms, Products: products}
	if len(spec.Platforms) > 0 {
		plan.Platforms = spec.Platforms
	}
	return plan
}

// Databases returns the databases in configuration order.
func (r *Registry) Databases() []*Database {
	return append([]*Database(nil), r.dbs...)
}

// Lookup finds a database by name.
func (r *Registry) Lookup(name string) (*Database, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Toolkits returns one toolkit per database in configuration order.
func (r *Registry) Toolkits() []*toolkit.Toolkit {
	kits := make([]*toolkit.Toolkit, 0, len(r.dbs))
	for _, d := range r.dbs {
		kits = append(kits, d.Toolkit)
	}
	return kits
}

// Ping checks every database.
func (r *Registry) Ping(ctx context.Context) error {
	var err error
	for _, d := range r.dbs {
		if pingErr := d.Client.Ping(ctx); pingErr != nil {
			err = multierr.Append(err, fmt.Errorf("database %s: %w", d.Name, pingErr))
		}
	}
	return err
}

// Close closes every database, returning all close errors.
func (r *Registry) Close() error {
	var err error
	for _, d := range r.dbs {
		err = multierr.Append(err, d.Client.Close())
	}
	return err
}
