package initwfn

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitWFnJSON(t *testing.T) {
	init, err := NewGlorotU(1.0)
	require.NoError(t, err)

	data, err := json.Marshal(init)
	require.NoError(t, err)

	var decoded InitWFn
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, GlorotU, decoded.Type)
	require.Equal(t, GlorotUConfig{Gain: 1.0}, decoded.Config)
	require.NotNil(t, decoded.InitWFn())
}

func TestInitWFnLowerCaseKeys(t *testing.T) {
	var decoded InitWFn
	data := []byte(`{"type": "gaussian", "config": {"mean": 1, "stddev": 2}}`)
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, GaussianConfig{Mean: 1, StdDev: 2}, decoded.Config)

	require.Error(t, json.Unmarshal([]byte(`{"Type": "Orthogonal"}`),
		&decoded))
}
