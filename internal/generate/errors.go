package generate

import "errors"

var errEmptySourceURL = errors.New("provider returned empty media url")
