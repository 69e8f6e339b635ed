package slotmap

type options struct {
	capacity int
}

// Option configures map construction.
type Option func(*options)

// WithCapacity pre-allocates backing storage for at least n elements,
// avoiding growth reallocations during an initial fill. Non-positive values
// are ignored.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

func applyOptions(optFns []Option) options {
	var o options
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
