package encoder

import "errors"

// ErrEncoding is returned when input bytes are not a decodable image or the
// underlying model call fails.
var ErrEncoding = errors.New("encoding failed")
