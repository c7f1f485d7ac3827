package audio

import "github.com/san-kum/harmony/internal/dynamo"

// Nop accepts and discards parameter updates.
type Nop struct{}

func (Nop) SetParameters(dynamo.AudioParameters) error { return nil }
