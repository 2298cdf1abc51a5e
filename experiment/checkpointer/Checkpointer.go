// Package checkpointer implements checkpointing of objects at the end
// of training epochs
package checkpointer

// Serializable is an object that can be saved to a file
type Serializable interface {
	Save(filename string) error
}

// Checkpointer checkpoints/saves serializable objects at the end of an
// epoch. The score is the evaluation score of the epoch, higher being
// better.
type Checkpointer interface {
	Checkpoint(epoch int, score float64) error
}
