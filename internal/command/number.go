package command

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Number is a float that renders the way the Python runtime prints floats, so
// both artifacts agree with what the robot script itself would log.
type Number float64

// PythonFloat formats f like Python's repr(float).
func PythonFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err != nil || exp < -4 || exp >= 16 {
		return sci
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func (n Number) String() string {
	return PythonFloat(float64(n))
}

// MarshalJSON writes finite values as numbers and non-finite values as the
// strings "NaN", "Infinity" and "-Infinity".
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return []byte(`"NaN"`), nil
	case math.IsInf(f, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Infinity"`), nil
	}
	return []byte(PythonFloat(f)), nil
}

// UnmarshalJSON accepts what MarshalJSON writes.
func (n *Number) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f, err := parseNonFinite(s)
		if err != nil {
			return err
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// MarshalYAML emits an explicit !!float scalar.
func (n Number) MarshalYAML() (any, error) {
	f := float64(n)
	value := PythonFloat(f)
	switch {
	case math.IsNaN(f):
		value = ".nan"
	case math.IsInf(f, 1):
		value = ".inf"
	case math.IsInf(f, -1):
		value = "-.inf"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: value}, nil
}

// UnmarshalYAML accepts YAML floats and ints as well as the JSON string forms
// of non-finite values, which lets JSON files go through the YAML decoder.
func (n *Number) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!str" {
		f, err := parseNonFinite(node.Value)
		if err != nil {
			return err
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := node.Decode(&f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

func parseNonFinite(s string) (float64, error) {
	switch s {
	case "NaN":
		return math.NaN(), nil
	case "Infinity":
		return math.Inf(1), nil
	case "-Infinity":
		return math.Inf(-1), nil
	default:
		return 0, fmt.Errorf("invalid number %q", s)
	}
}
