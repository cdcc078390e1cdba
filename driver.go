package sequel

import (
	"context"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/mitranim/sequel/stmt"
)

/*
Opens a backend for a parsed URL. Must not retain `conns` beyond configuring
the driver-level pool.
*/
type Opener func(ctx context.Context, src *url.URL, conns Connections) (Backend, error)

type driver struct {
	dialect stmt.Dialect
	open    Opener
}

var drivers = struct {
	sync.RWMutex
	byScheme map[string]driver
}{byScheme: map[string]driver{}}

/*
Registers a driver for a URL scheme, replacing any previous registration.
Schemes are case-insensitive. Typically called from `init` of a driver package.
*/
func RegisterDriver(scheme string, dialect stmt.Dialect, open Opener) {
	if scheme == `` || open == nil {
		panic(errf(ErrCodeConfig, `registering driver`, `missing scheme or opener`))
	}

	drivers.Lock()
	defer drivers.Unlock()
	drivers.byScheme[strings.ToLower(scheme)] = driver{dialect, open}
}

// Sorted schemes of registered drivers.
func Drivers() []string {
	drivers.RLock()
	defer drivers.RUnlock()

	out := make([]string, 0, len(drivers.byScheme))
	for key := range drivers.byScheme {
		out = append(out, key)
	}
	slices.Sort(out)
	return out
}

func driverFor(scheme string) (driver, error) {
	drivers.RLock()
	out, ok := drivers.byScheme[strings.ToLower(scheme)]
	drivers.RUnlock()

	if !ok {
		return out, errf(ErrCodeUnknownScheme, `opening database`, `no driver for scheme %q; registered: %q`, scheme, Drivers())
	}
	return out, nil
}
