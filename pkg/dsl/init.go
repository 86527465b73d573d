package dsl

// Initializer fixes one value when an owner is constructed.
type Initializer func() error

// Value returns an Initializer that sets the accessor to v in the root store.
func Value[T any](a *Accessor[T], v T, args ...any) Initializer {
	return func() error {
		return a.Set(v, args...)
	}
}

// Init runs initializers in order and stops at the first failure.
func Init(inits ...Initializer) error {
	for _, fn := range inits {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}
