package money

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math/big"
)

// Amount is a non-negative integer asset quantity in base units (18-decimal
// fixed point for both the loan currency and the collateral asset). It is
// stored as decimal(38,0) and serialized to JSON as a decimal string so no
// precision is lost in transport.
type Amount struct {
	i big.Int
}

var ErrInvalidAmount = errors.New("money: invalid amount")

// New copies v into a fresh Amount. A nil v yields zero.
func New(v *big.Int) Amount {
	var a Amount
	if v != nil {
		a.i.Set(v)
	}
	return a
}

// Parse reads a base-10 unsigned integer string.
func Parse(s string) (Amount, error) {
	var a Amount
	if _, ok := a.i.SetString(s, 10); !ok {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if a.i.Sign() < 0 {
		return Amount{}, fmt.Errorf("%w: negative %q", ErrInvalidAmount, s)
	}
	return a, nil
}

// MustParse is Parse for constants in tests and wiring.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) BigInt() *big.Int  { return new(big.Int).Set(&a.i) }
func (a Amount) String() string    { return a.i.String() }
func (a Amount) Sign() int         { return a.i.Sign() }
func (a Amount) IsZero() bool      { return a.i.Sign() == 0 }
func (a Amount) Cmp(b Amount) int  { return a.i.Cmp(&b.i) }
func (a Amount) CmpBig(b *big.Int) int {
	if b == nil {
		b = new(big.Int)
	}
	return a.i.Cmp(b)
}

// Add returns a+b without mutating either operand.
func (a Amount) Add(b Amount) Amount {
	var out Amount
	out.i.Add(&a.i, &b.i)
	return out
}

// Sub returns a-b; it errors instead of going negative.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.i.Cmp(&b.i) < 0 {
		return Amount{}, fmt.Errorf("%w: %s - %s underflows", ErrInvalidAmount, a.String(), b.String())
	}
	var out Amount
	out.i.Sub(&a.i, &b.i)
	return out, nil
}

// Value implements driver.Valuer; amounts travel to the DB as strings so
// decimal(38,0) columns keep full precision.
func (a Amount) Value() (driver.Value, error) { return a.i.String(), nil }

// Scan implements sql.Scanner. MySQL decimals arrive as []byte, sqlite
// round-trips the Valuer string, and small integers may come back as int64.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		a.i.SetInt64(0)
		return nil
	case int64:
		if v < 0 {
			return fmt.Errorf("%w: negative %d", ErrInvalidAmount, v)
		}
		a.i.SetInt64(v)
		return nil
	case []byte:
		return a.setString(string(v))
	case string:
		return a.setString(v)
	default:
		return fmt.Errorf("%w: unsupported scan type %T", ErrInvalidAmount, src)
	}
}

func (a *Amount) setString(s string) error {
	if s == "" {
		a.i.SetInt64(0)
		return nil
	}
	if _, ok := a.i.SetString(s, 10); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if a.i.Sign() < 0 {
		a.i.SetInt64(0)
		return fmt.Errorf("%w: negative %q", ErrInvalidAmount, s)
	}
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.i.String() + `"`), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "null" {
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	a.i.Set(&parsed.i)
	return nil
}
