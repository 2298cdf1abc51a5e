package progressbar

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManualProgressBar(t *testing.T) {
	var out bytes.Buffer
	p := NewManualProgressBar(&out, 10, 4)

	require.Contains(t, p.String(), "0.00%")

	p.Increment()
	p.Increment()
	require.Contains(t, p.String(), "50.00%")
	require.Equal(t, 5, strings.Count(p.String(), "█"))

	// Progress saturates at the maximum
	for i := 0; i < 10; i++ {
		p.Increment()
	}
	p.Display()
	require.Contains(t, out.String(), "100.00%")
}
