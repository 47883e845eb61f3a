package command

import (
	"encoding/json"
	"math"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestPythonFloat(t *testing.T) {
	a, b := 0.1, 0.2
	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "0.0"},
		{in: math.Copysign(0, -1), want: "-0.0"},
		{in: 5, want: "5.0"},
		{in: -5, want: "-5.0"},
		{in: 0.1, want: "0.1"},
		{in: a + b, want: "0.30000000000000004"},
		{in: 3.141592653589793, want: "3.141592653589793"},
		{in: 0.0001, want: "0.0001"},
		{in: 0.00001, want: "1e-05"},
		{in: 1.5e-7, want: "1.5e-07"},
		{in: 1e15, want: "1000000000000000.0"},
		{in: 1e16, want: "1e+16"},
		{in: 1.5e300, want: "1.5e+300"},
		{in: math.NaN(), want: "nan"},
		{in: math.Inf(1), want: "inf"},
		{in: math.Inf(-1), want: "-inf"},
	}
	for _, tt := range tests {
		if got := PythonFloat(tt.in); got != tt.want {
			t.Fatalf("PythonFloat(%v)=%q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNumberJSONNonFinite(t *testing.T) {
	data, err := json.Marshal([]Number{Number(math.NaN()), Number(math.Inf(1)), Number(math.Inf(-1)), 2})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if got, want := string(data), `["NaN","Infinity","-Infinity",2.0]`; got != want {
		t.Fatalf("json=%s, want %s", got, want)
	}

	var back []Number
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if !math.IsNaN(float64(back[0])) || !math.IsInf(float64(back[1]), 1) || !math.IsInf(float64(back[2]), -1) || back[3] != 2 {
		t.Fatalf("decoded=%v", back)
	}
}

func TestNumberYAMLFloats(t *testing.T) {
	data, err := yaml.Marshal(map[string]Number{"z": 5, "w": Number(math.NaN())})
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if got, want := string(data), "w: .nan\nz: 5.0\n"; got != want {
		t.Fatalf("yaml=%q, want %q", got, want)
	}
}

func TestNumberRejectsUnknownString(t *testing.T) {
	var n Number
	if err := json.Unmarshal([]byte(`"five"`), &n); err == nil {
		t.Fatal("Unmarshal(\"five\") error=nil, want non-nil")
	}
}
