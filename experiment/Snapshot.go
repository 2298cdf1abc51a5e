package experiment

import (
	"encoding/gob"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/samuelfneumann/fblearn/agent/fb"
)

// SaveSnapshot gob-encodes s to filename. The file is written to a
// temporary file first and then renamed so that an interrupted save
// never leaves a truncated model behind.
func SaveSnapshot(filename string, s fb.Snapshot) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), ".snapshot-*")
	if err != nil {
		return errors.Wrap(err, "saveSnapshot: could not create file")
	}

	if err := gob.NewEncoder(tmp).Encode(s); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "saveSnapshot: could not encode %v",
			filename)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "saveSnapshot: could not close file")
	}

	if err := os.Rename(tmp.Name(), filename); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "saveSnapshot: could not write %v",
			filename)
	}
	return nil
}

// LoadSnapshot decodes a Snapshot saved with SaveSnapshot
func LoadSnapshot(filename string) (fb.Snapshot, error) {
	file, err := os.Open(filename)
	if err != nil {
		return fb.Snapshot{}, errors.Wrap(err, "loadSnapshot: could not "+
			"open file")
	}
	defer file.Close()

	var s fb.Snapshot
	if err := gob.NewDecoder(file).Decode(&s); err != nil {
		return fb.Snapshot{}, errors.Wrapf(err, "loadSnapshot: could not "+
			"decode %v", filename)
	}
	return s, nil
}

// agentSaver saves snapshots of the online networks of an agent
type agentSaver struct {
	agent *fb.Agent
}

// Save implements the checkpointer.Serializable interface
func (a agentSaver) Save(filename string) error {
	return SaveSnapshot(filename, a.agent.Snapshot())
}
