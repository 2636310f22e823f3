package swara

import (
	"encoding/json"
	"fmt"
)

// ScaleDegree is one of the twelve canonical Carnatic swara labels.
// The enumeration is fixed and ordered by ascending pitch within an octave.
type ScaleDegree int

const (
	Sa ScaleDegree = iota
	Ri1
	Ri2
	Ga2
	Ga3
	Ma1
	Ma2
	Pa
	Da1
	Da2
	Ni2
	Ni3

	NumDegrees = 12
)

var degreeNames = [NumDegrees]string{
	"Sa", "Ri1", "Ri2", "Ga2", "Ga3", "Ma1", "Ma2", "Pa", "Da1", "Da2", "Ni2", "Ni3",
}

// degreeCents holds just-intonation offsets from the tonic, in cents.
// These are the standard Carnatic frequency ratios; they are part of the
// observable contract and are not tuning knobs.
var degreeCents = [NumDegrees]float64{
	0,    // Sa - tonic
	112,  // Ri1 - Shuddha Rishabha
	204,  // Ri2 - Chatushruti Rishabha
	316,  // Ga2 - Sadharana Gandhara
	386,  // Ga3 - Antara Gandhara
	498,  // Ma1 - Shuddha Madhyama
	590,  // Ma2 - Prati Madhyama
	702,  // Pa - Panchama
	814,  // Da1 - Shuddha Dhaivata
	906,  // Da2 - Chatushruti Dhaivata
	1018, // Ni2 - Kaishiki Nishada
	1088, // Ni3 - Kakali Nishada
}

func (d ScaleDegree) String() string {
	if d < 0 || d >= NumDegrees {
		return fmt.Sprintf("ScaleDegree(%d)", int(d))
	}
	return degreeNames[d]
}

// Cents returns the degree's just-intonation offset from the tonic in cents
func (d ScaleDegree) Cents() float64 {
	return degreeCents[d]
}

// ParseScaleDegree converts a swaram label to its ScaleDegree
func ParseScaleDegree(name string) (ScaleDegree, error) {
	for i, n := range degreeNames {
		if n == name {
			return ScaleDegree(i), nil
		}
	}
	return 0, fmt.Errorf("unknown scale degree %q", name)
}

// MarshalJSON renders the degree as its swaram label
func (d ScaleDegree) MarshalJSON() ([]byte, error) {
	if d < 0 || d >= NumDegrees {
		return nil, fmt.Errorf("scale degree out of range: %d", int(d))
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON parses a swaram label
func (d *ScaleDegree) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}

	parsed, err := ParseScaleDegree(name)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Octave classifies a pitch into one of three bands relative to the tonic
type Octave int

const (
	Mandra Octave = iota // one octave below the tonic
	Madhya               // the tonic octave
	Tara                 // one octave above the tonic

	NumOctaves = 3
)

var octaveNames = [NumOctaves]string{"Mandra", "Madhya", "Tara"}

// octaveMultipliers scale the tonic into each band; band edges follow the
// tonic rather than fixed absolute frequencies.
var octaveMultipliers = [NumOctaves]float64{0.5, 1.0, 2.0}

func (o Octave) String() string {
	if o < 0 || o >= NumOctaves {
		return fmt.Sprintf("Octave(%d)", int(o))
	}
	return octaveNames[o]
}

// Multiplier returns the tonic multiplier for this band
func (o Octave) Multiplier() float64 {
	return octaveMultipliers[o]
}

// MarshalJSON renders the octave as its band name
func (o Octave) MarshalJSON() ([]byte, error) {
	if o < 0 || o >= NumOctaves {
		return nil, fmt.Errorf("octave out of range: %d", int(o))
	}
	return json.Marshal(o.String())
}

// UnmarshalJSON parses an octave band name
func (o *Octave) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}

	for i, n := range octaveNames {
		if n == name {
			*o = Octave(i)
			return nil
		}
	}
	return fmt.Errorf("unknown octave %q", name)
}
