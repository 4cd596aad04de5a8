package decimal

import (
	"encoding/json"
	"errors"
	"math/big"
)

var errInvalidBigInt = errors.New("decimal: invalid big integer in JSON payload")

// MarshalJSON renders a Quantity as its raw integer value, so persisted
// vault state reads back as plain numbers rather than an opaque struct.
func (q Quantity) MarshalJSON() ([]byte, error) { return json.Marshal(q.val) }

func (q *Quantity) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &q.val)
}

func (f Fraction) MarshalJSON() ([]byte, error) { return json.Marshal(f.val) }

func (f *Fraction) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &f.val)
}

func (p Price) MarshalJSON() ([]byte, error) { return json.Marshal(p.val) }

func (p *Price) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &p.val)
}

// MarshalJSON renders the arbitrary-precision types as their decimal string
// form, since big.Int values can exceed what a JSON number can hold exactly.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.val == nil {
		return json.Marshal("0")
	}
	return json.Marshal(v.val.String())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return errInvalidBigInt
	}
	v.val = n
	return nil
}

func (s Shares) MarshalJSON() ([]byte, error) {
	if s.val == nil {
		return json.Marshal("0")
	}
	return json.Marshal(s.val.String())
}

func (s *Shares) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	n, ok := new(big.Int).SetString(str, 10)
	if !ok {
		return errInvalidBigInt
	}
	s.val = n
	return nil
}

func (f FundingRate) MarshalJSON() ([]byte, error) {
	if f.val == nil {
		return json.Marshal("0")
	}
	return json.Marshal(f.val.String())
}

func (f *FundingRate) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	n, ok := new(big.Int).SetString(str, 10)
	if !ok {
		return errInvalidBigInt
	}
	f.val = n
	return nil
}

func (p Precise) MarshalJSON() ([]byte, error) {
	if p.val == nil {
		return json.Marshal("0")
	}
	return json.Marshal(p.val.String())
}

func (p *Precise) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	n, ok := new(big.Int).SetString(str, 10)
	if !ok {
		return errInvalidBigInt
	}
	p.val = n
	return nil
}
