package postprocessors

import (
	"github.com/evidentlabs/answercore/internal/postprocessors/chunker"
)

// DefaultPipeline builds the standard ingestion pipeline: a fixed-size
// chunker with the default size and overlap.
func DefaultPipeline() *Pipeline {
	return NewPipeline(chunker.New())
}
