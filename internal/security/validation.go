package security

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Limits applied to raw tool arguments before they are decoded.
const (
	DefaultMaxArgumentBytes = 64 << 10
	DefaultMaxArgumentDepth = 8
)

// Argument validation errors.
var (
	ErrArgumentsTooLarge = errors.New("tool arguments exceed maximum size")
	ErrArgumentsTooDeep  = errors.New("tool arguments nest too deeply")
	ErrInvalidArguments  = errors.New("tool arguments are not valid JSON")
)

// CheckArguments enforces size and nesting limits on a JSON argument
// object. Limits <= 0 fall back to the defaults.
func CheckArguments(data []byte, maxBytes, maxDepth int) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxArgumentBytes
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxArgumentDepth
	}
	if len(data) > maxBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrArgumentsTooLarge, len(data), maxBytes)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			if depth != 0 {
				return fmt.Errorf("%w: unexpected end of input", ErrInvalidArguments)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidArguments, err)
		}
		switch tok {
		case json.Delim('{'), json.Delim('['):
			depth++
			if depth > maxDepth {
				return fmt.Errorf("%w: depth %d (max %d)", ErrArgumentsTooDeep, depth, maxDepth)
			}
		case json.Delim('}'), json.Delim(']'):
			depth--
		}
	}
}
