package checkpointer

import "fmt"

// nStep implements checkpointing every N epochs
type nStep struct {
	interval int
	object   Serializable // Object to save

	// filename returns the filename of the file to save the object in
	// at some epoch.
	//
	// If each checkpoint should be saved in a separate file with the
	// epoch as a suffix (e.g. model_0.bin, model_1.bin, ...), use
	// EpochFilename. Otherwise use Filename to overwrite a single file.
	filename func(epoch int) string
}

// NewNStep returns a checkpointer that checkpoints every n epochs
func NewNStep(n int, object Serializable,
	filename func(int) string) (Checkpointer, error) {
	if n < 1 {
		return nil, fmt.Errorf("newNStep: interval must be positive"+
			"\n\twant(>0)\n\thave(%v)", n)
	}
	return &nStep{
		interval: n,
		object:   object,
		filename: filename,
	}, nil
}

// Checkpoint saves the tracked object if the epoch is a multiple of the
// interval
func (n *nStep) Checkpoint(epoch int, _ float64) error {
	if epoch%n.interval == 0 {
		return n.object.Save(n.filename(epoch))
	}
	return nil
}

// best implements checkpointing whenever the score improves
type best struct {
	object   Serializable
	filename func(epoch int) string
	score    float64
}

// NewBest returns a checkpointer that saves the object each time the
// score is strictly greater than the best score seen so far. Scores
// must exceed initial to be saved at all.
func NewBest(initial float64, object Serializable,
	filename func(int) string) Checkpointer {
	return &best{object: object, filename: filename, score: initial}
}

// Checkpoint saves the tracked object if score improves on the best
// score seen so far
func (b *best) Checkpoint(epoch int, score float64) error {
	if score <= b.score {
		return nil
	}
	if err := b.object.Save(b.filename(epoch)); err != nil {
		return err
	}
	b.score = score
	return nil
}
