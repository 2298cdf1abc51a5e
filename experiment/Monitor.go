package experiment

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Score is the result of one training epoch
type Score struct {
	Epoch        int
	EvalSuccess  float64
	EvalDistance float64
	GPISuccess   float64
	GPIDistance  float64
	Loss         float64
	Entropy      float64
}

var monitorHeader = []string{"epoch", "eval_success", "eval_distance",
	"gpi_success", "gpi_distance", "loss", "entropy"}

// Monitor appends the Score of each epoch to a CSV file
type Monitor struct {
	file   *os.File
	writer *csv.Writer
}

// NewMonitor creates filename, truncating any existing file, and writes
// the CSV header
func NewMonitor(filename string) (*Monitor, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, errors.Wrap(err, "newMonitor: could not create monitor")
	}

	m := &Monitor{file: file, writer: csv.NewWriter(file)}
	if err := m.write(monitorHeader); err != nil {
		file.Close()
		return nil, errors.Wrap(err, "newMonitor: could not write header")
	}
	return m, nil
}

// Write appends a row to the monitor and flushes it to disk
func (m *Monitor) Write(s Score) error {
	f := func(v float64) string {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	row := []string{strconv.Itoa(s.Epoch), f(s.EvalSuccess),
		f(s.EvalDistance), f(s.GPISuccess), f(s.GPIDistance), f(s.Loss),
		f(s.Entropy)}

	return errors.Wrapf(m.write(row), "write: epoch %v", s.Epoch)
}

func (m *Monitor) write(row []string) error {
	if err := m.writer.Write(row); err != nil {
		return err
	}
	m.writer.Flush()
	return m.writer.Error()
}

// Close closes the underlying file
func (m *Monitor) Close() error {
	return errors.Wrap(m.file.Close(), "close: could not close monitor")
}

// LoadScores reads the Scores from a monitor file
func LoadScores(filename string) ([]Score, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "loadScores: could not open monitor")
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "loadScores: could not read monitor")
	}
	if len(rows) == 0 {
		return nil, errors.New("loadScores: missing header")
	}

	scores := make([]Score, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) != len(monitorHeader) {
			return nil, errors.Errorf("loadScores: malformed row %v", row)
		}

		epoch, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, errors.Wrap(err, "loadScores: invalid epoch")
		}
		values := make([]float64, len(row)-1)
		for i := range values {
			if values[i], err = strconv.ParseFloat(row[i+1], 64); err != nil {
				return nil, errors.Wrapf(err, "loadScores: epoch %v", epoch)
			}
		}

		scores = append(scores, Score{
			Epoch:        epoch,
			EvalSuccess:  values[0],
			EvalDistance: values[1],
			GPISuccess:   values[2],
			GPIDistance:  values[3],
			Loss:         values[4],
			Entropy:      values[5],
		})
	}
	return scores, nil
}
