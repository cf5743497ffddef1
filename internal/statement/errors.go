package statement

import "errors"

var (
	ErrUnsupportedFormat  = errors.New("unsupported statement format")
	ErrUnreadableDocument = errors.New("unreadable document")
	ErrRowSkipped         = errors.New("row skipped")
)
