package selection

import (
	"errors"
	"fmt"
)

// ErrNoReply is returned when the server produced neither a reply nor an error
var ErrNoReply = errors.New("no reply from server")

// ProtocolError reports a failed request/reply exchange for one query.
// It is scoped to a single selection: callers render the selection as
// degraded and move on to the next one.
type ProtocolError struct {
	Op   string
	Name string
	Err  error
}

func (e *ProtocolError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Name, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsProtocolError reports whether err carries a *ProtocolError
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
