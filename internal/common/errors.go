package common

import "errors"

// ErrorValidation marks input rejected by the form layer before any request
// is made.
var ErrorValidation = errors.New("validation error")
