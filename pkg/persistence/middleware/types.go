package middleware

import "github.com/aretw0/strata/pkg/ports"

// Middleware allows wrapping a FixedStore to add behavior.
type Middleware func(ports.FixedStore) ports.FixedStore

// Chain applies middlewares so that the first one is outermost.
func Chain(store ports.FixedStore, mws ...Middleware) ports.FixedStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
