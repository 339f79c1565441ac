package service

// Status tells an empty list that means "nothing there" apart from one
// that means "the lookup failed".
type Status string

const (
	StatusOK     Status = "ok"
	StatusEmpty  Status = "empty"
	StatusFailed Status = "failed"
)

// Result is a list outcome whose failures were absorbed rather than returned.
type Result[T any] struct {
	Items  []T
	Status Status
	// Err is the last absorbed failure, if any.
	Err error
}

func okResult[T any](items []T) Result[T] {
	if items == nil {
		items = []T{}
	}
	if len(items) == 0 {
		return Result[T]{Items: items, Status: StatusEmpty}
	}
	return Result[T]{Items: items, Status: StatusOK}
}

func failedResult[T any](items []T, err error) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{Items: items, Status: StatusFailed, Err: err}
}

// partialResult is ok when anything came back, failed when nothing did and
// something went wrong, empty otherwise. Err keeps the last failure either way.
func partialResult[T any](items []T, err error) Result[T] {
	r := okResult(items)
	r.Err = err
	if r.Status == StatusEmpty && err != nil {
		r.Status = StatusFailed
	}
	return r
}
