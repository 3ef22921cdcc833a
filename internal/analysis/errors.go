package analysis

import "fmt"

// FileError indicates the input could not be opened or parsed as a table.
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("file %s: %s: %v", e.Path, e.Op, e.Err)
	}
	return fmt.Sprintf("file %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// ImputationError indicates a column has no present value to derive a fill from.
type ImputationError struct {
	Column string
	Kind   Kind
}

func (e *ImputationError) Error() string {
	return fmt.Sprintf("cannot impute column %q: no non-missing values", e.Column)
}
