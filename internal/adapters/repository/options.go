package repository

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithIntN sets the source of random positions. intn(n) must return a value
// in [0, n).
func WithIntN(intn func(n int) int) Option {
	return func(s *MemoryStore) {
		if intn != nil {
			s.intn = intn
		}
	}
}
