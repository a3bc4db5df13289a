package utils

// MaxPageSize caps how many task records a single list call returns.
const MaxPageSize = 500

// ToSkipAndLimit converts 1-based page/size query parameters into an
// offset and a bounded limit.
func ToSkipAndLimit(page uint64, size uint64) (skip uint64, limit uint64) {
	if page == 0 {
		page = 1
	}

	if size == 0 {
		size = 10
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	skip = (page - 1) * size
	limit = size

	return
}
