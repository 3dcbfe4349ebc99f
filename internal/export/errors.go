package export

import "github.com/AngelCh415/adinsights/internal/report"

// ErrUnsupportedValue is returned (wrapped) when a NaN or infinite number
// reaches a serializer.
var ErrUnsupportedValue = report.ErrUnsupportedValue

// Error reports a failed export. Nothing has been written to the destination
// when an Error is returned from the render stage.
type Error struct {
	Format string
	Err    error
}

func (e *Error) Error() string { return "export " + e.Format + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

func fail(format string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Format: format, Err: err}
}
