package geo

import "errors"

var ErrInvalidCoord = errors.New("coordinate out of range")
