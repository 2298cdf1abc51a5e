// Package initwfn wraps Gorgonia InitWFn so that weight initializers
// can be described in JSON configuration files.
package initwfn

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of InitWFn that are available.
type Type string

// Available InitWFn types
const (
	GlorotU  Type = "GlorotU"
	GlorotN  Type = "GlorotN"
	HeU      Type = "HeU"
	HeN      Type = "HeN"
	Zeroes   Type = "Zeroes"
	Ones     Type = "Ones"
	Constant Type = "Constant"
	Uniform  Type = "Uniform"
	Gaussian Type = "Gaussian"
)

var configTypes = map[Type]reflect.Type{
	GlorotU:  reflect.TypeOf(GlorotUConfig{}),
	GlorotN:  reflect.TypeOf(GlorotNConfig{}),
	HeU:      reflect.TypeOf(HeUConfig{}),
	HeN:      reflect.TypeOf(HeNConfig{}),
	Zeroes:   reflect.TypeOf(ZeroesConfig{}),
	Ones:     reflect.TypeOf(OnesConfig{}),
	Constant: reflect.TypeOf(ConstantConfig{}),
	Uniform:  reflect.TypeOf(UniformConfig{}),
	Gaussian: reflect.TypeOf(GaussianConfig{}),
}

// Config implements a Gorgonia InitWFn configuration and can be used to
// create the described Gorgonia InitWFn.
type Config interface {
	// Create returns the Gorgonia InitWFn that the Config describes
	Create() G.InitWFn

	// Type returns the type of Gorgonia InitWFn that is returned
	Type() Type
}

// InitWFn wraps a Gorgonia InitWFn so that it can be JSON marshalled
// and unmarshalled. It marshals as {"Type": ..., "Config": {...}}.
type InitWFn struct {
	initWFn G.InitWFn
	Type
	Config
}

func newInitWFn(c Config) (*InitWFn, error) {
	return &InitWFn{initWFn: c.Create(), Type: c.Type(), Config: c}, nil
}

// InitWFn returns the wrapped Gorgonia InitWFn
func (i *InitWFn) InitWFn() G.InitWFn {
	return i.initWFn
}

// String implements the fmt.Stringer interface
func (i *InitWFn) String() string {
	return fmt.Sprintf("{%v InitWFn: %v}", i.Type, i.Config)
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (i *InitWFn) UnmarshalJSON(data []byte) error {
	config, err := unmarshalConfig(data, "Type", "Config")
	if err != nil {
		return err
	}

	i.Type = config.Type()
	i.Config = config
	i.initWFn = config.Create()
	return nil
}

// unmarshalConfig uses reflection to unmarshal a Config into its
// concrete type. Field names and type names are matched without regard
// to case, since configuration loaders may lower-case keys.
func unmarshalConfig(data []byte, typeField, valueField string) (Config,
	error) {
	m := map[string]interface{}{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	typeName, ok := lookup(m, typeField).(string)
	if !ok {
		return nil, fmt.Errorf("unmarshalConfig: missing InitWFn type")
	}

	var ty reflect.Type
	for t, concrete := range configTypes {
		if strings.EqualFold(string(t), typeName) {
			ty = concrete
		}
	}
	if ty == nil {
		return nil, fmt.Errorf("unmarshalConfig: no such InitWFn %q",
			typeName)
	}

	value := reflect.New(ty)
	if raw := lookup(m, valueField); raw != nil {
		valueBytes, err := json.Marshal(raw)
		if err != nil {
			return nil, err
		}
		if err = json.Unmarshal(valueBytes, value.Interface()); err != nil {
			return nil, err
		}
	}

	return value.Elem().Interface().(Config), nil
}

func lookup(m map[string]interface{}, key string) interface{} {
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return nil
}
