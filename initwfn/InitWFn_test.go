package initwfn

import (
	"encoding/json"
	"testing"
)

// TestInitWFnJSONRoundTrip tests that weight initializers can be
// marshalled to JSON and unmarshalled back with their type and
// parameters intact
func TestInitWFnJSONRoundTrip(t *testing.T) {
	glorot, err := NewGlorotU(2.0)
	if err != nil {
		t.Fatalf("could not create initializer: %v", err)
	}

	data, err := json.Marshal(glorot)
	if err != nil {
		t.Fatalf("could not marshal initializer: %v", err)
	}

	var got InitWFn
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("could not unmarshal initializer: %v", err)
	}

	if got.Type != GlorotU {
		t.Errorf("incorrect initializer type: expected %v, received "+
			"%v", GlorotU, got.Type)
	}
	config, ok := got.Config.(GlorotUConfig)
	if !ok {
		t.Fatalf("incorrect config type: received %T", got.Config)
	}
	if config.Gain != 2.0 {
		t.Errorf("incorrect gain: expected 2.0, received %v",
			config.Gain)
	}
	if got.InitWFn() == nil {
		t.Error("unmarshalled initializer has no Gorgonia InitWFn")
	}
}

// TestUniformJSONRoundTrip tests the interval-drawing initializer's
// JSON round trip
func TestUniformJSONRoundTrip(t *testing.T) {
	uniform, err := NewUniform(-0.1, 0.1)
	if err != nil {
		t.Fatalf("could not create initializer: %v", err)
	}

	data, err := json.Marshal(uniform)
	if err != nil {
		t.Fatalf("could not marshal initializer: %v", err)
	}

	var got InitWFn
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("could not unmarshal initializer: %v", err)
	}

	if got.Type != Uniform {
		t.Errorf("incorrect initializer type: expected %v, received "+
			"%v", Uniform, got.Type)
	}
	config, ok := got.Config.(UniformConfig)
	if !ok {
		t.Fatalf("incorrect config type: received %T", got.Config)
	}
	if config.Low != -0.1 || config.High != 0.1 {
		t.Errorf("incorrect interval: expected [-0.1, 0.1], received "+
			"[%v, %v]", config.Low, config.High)
	}
}
