package redisdedupe

import "errors"

var ErrEmptyEventID = errors.New("redisdedupe: empty event id")
