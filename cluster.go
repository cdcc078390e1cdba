package sequel

import (
	"context"
	"errors"
	"maps"
	"slices"

	"golang.org/x/sync/errgroup"
)

// Several named databases opened from one configuration.
type Cluster struct {
	dbs map[string]*DB
}

/*
Opens every configured database concurrently. Each database is named after its
key, which appears in logs and metric labels. When any database fails to open,
the ones already opened are closed and the first error is returned.
*/
func OpenCluster(ctx context.Context, confs map[string]Config, opts ...Option) (*Cluster, error) {
	names := slices.Sorted(maps.Keys(confs))
	dbs := make([]*DB, len(names))

	group, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		group.Go(func() error {
			db, err := Open(gctx, confs[name], append(slices.Clip(opts), WithName(name))...)
			if err != nil {
				return err
			}
			dbs[i] = db
			return nil
		})
	}

	err := group.Wait()

	out := &Cluster{dbs: make(map[string]*DB, len(names))}
	for i, name := range names {
		if dbs[i] != nil {
			out.dbs[name] = dbs[i]
		}
	}

	if err != nil {
		return nil, errors.Join(err, out.Close())
	}
	return out, nil
}

// Returns the named database, or `ErrUnknownDB`.
func (self *Cluster) Get(name string) (*DB, error) {
	out, ok := self.dbs[name]
	if !ok {
		return nil, errf(ErrCodeUnknownDB, `looking up database`, `no database named %q; known: %q`, name, self.Names())
	}
	return out, nil
}

// Sorted database names.
func (self *Cluster) Names() []string { return slices.Sorted(maps.Keys(self.dbs)) }

// Closes every database concurrently and joins the errors.
func (self *Cluster) Close() error {
	var group errgroup.Group
	errs := make([]error, len(self.dbs))

	for i, name := range self.Names() {
		db := self.dbs[name]
		group.Go(func() error {
			errs[i] = db.Close()
			return nil
		})
	}
	_ = group.Wait()
	return errors.Join(errs...)
}
