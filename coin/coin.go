package coin

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"regexp"
	"strconv"
	"strings"

	"github.com/iov-one/drip/errors"
)

//-------------- Coin -----------------------

// IsCC is the RegExp to ensure valid currency codes
var IsCC = regexp.MustCompile(`^[A-Z]{3,4}$`).MatchString

// Coin is a single denomination amount. The amount is expressed in the
// smallest indivisible unit of the currency, there is no fractional part.
// All arithmetic is unsigned and overflow checked.
type Coin struct {
	Ticker string
	Amount uint64
}

// NewCoin creates a new coin object
func NewCoin(amount uint64, ticker string) Coin {
	return Coin{
		Ticker: ticker,
		Amount: amount,
	}
}

// NewCoinp returns a pointer to a new coin.
func NewCoinp(amount uint64, ticker string) *Coin {
	c := NewCoin(amount, ticker)
	return &c
}

// ID returns a coin ticker name.
func (c Coin) ID() string {
	return c.Ticker
}

// Divide splits the value of a coin into given amount of pieces and returns
// a single piece together with the leftover that cannot be divided evenly.
// For example splitting 10 into 4 pieces results in a single piece of 2 and
// a leftover of 2.
//   10 = 2 x 4 + 2
func (c Coin) Divide(pieces uint64) (Coin, Coin, error) {
	zero := Coin{Ticker: c.Ticker}
	// This is an invalid use of the method.
	if pieces == 0 {
		return zero, zero, errors.Wrap(errors.ErrInput, "pieces must be greater than zero")
	}

	one := Coin{
		Ticker: c.Ticker,
		Amount: c.Amount / pieces,
	}
	rest := Coin{
		Ticker: c.Ticker,
		Amount: c.Amount % pieces,
	}
	return one, rest, nil
}

// Multiply returns the result of a coin value multiplication. This method can
// fail if the result would overflow maximum coin value.
func (c Coin) Multiply(times uint64) (Coin, error) {
	hi, lo := bits.Mul64(c.Amount, times)
	if hi != 0 {
		return Coin{}, errors.Wrapf(errors.ErrOverflow, "%d * %d", c.Amount, times)
	}
	return Coin{Ticker: c.Ticker, Amount: lo}, nil
}

// Ratio returns the value of this coin scaled by the part/total ratio,
// rounded down. The intermediate multiplication is done with 128 bit
// precision, so it cannot overflow. Part must not be greater than total.
func (c Coin) Ratio(part, total uint64) (Coin, error) {
	if total == 0 {
		return Coin{}, errors.Wrap(errors.ErrInput, "zero total")
	}
	if part > total {
		return Coin{}, errors.Wrapf(errors.ErrInput, "part %d greater than total %d", part, total)
	}
	hi, lo := bits.Mul64(c.Amount, part)
	// Because part <= total the quotient always fits a single word.
	q, _ := bits.Div64(hi, lo, total)
	return Coin{Ticker: c.Ticker, Amount: q}, nil
}

// Add combines two coins.
// Returns error if they are of different
// currencies, or if the combination would cause
// an overflow
func (c Coin) Add(o Coin) (Coin, error) {
	// If any of the coins represents no value and does not have a ticker
	// set then it has no influence on the addition result.
	if c.Ticker == "" && c.IsZero() {
		return o, nil
	}
	if o.Ticker == "" && o.IsZero() {
		return c, nil
	}

	if !c.SameType(o) {
		err := errors.Wrapf(errors.ErrCurrency, "adding %s to %s", c.Ticker, o.Ticker)
		return Coin{}, err
	}

	sum, carry := bits.Add64(c.Amount, o.Amount, 0)
	if carry != 0 {
		return Coin{}, errors.Wrapf(errors.ErrOverflow, "%d + %d", c.Amount, o.Amount)
	}
	c.Amount = sum
	return c, nil
}

// Subtract given amount. Returns an error if the subtraction would bring the
// amount below zero.
func (c Coin) Subtract(o Coin) (Coin, error) {
	if o.Ticker == "" && o.IsZero() {
		return c, nil
	}

	if !c.SameType(o) {
		err := errors.Wrapf(errors.ErrCurrency, "subtracting %s from %s", o.Ticker, c.Ticker)
		return Coin{}, err
	}

	diff, borrow := bits.Sub64(c.Amount, o.Amount, 0)
	if borrow != 0 {
		return Coin{}, errors.Wrapf(errors.ErrInsufficientAmount, "%d - %d", c.Amount, o.Amount)
	}
	c.Amount = diff
	return c, nil
}

// Compare will check values of two coins, without
// inspecting the currency code. It is up to the caller
// to determine if they want to check this.
//
// Returns 1 if c is larger, -1 if o is larger, 0 if equal
func (c Coin) Compare(o Coin) int {
	if c.Amount > o.Amount {
		return 1
	}
	if c.Amount < o.Amount {
		return -1
	}
	return 0
}

// Equals returns true if all fields are identical
func (c Coin) Equals(o Coin) bool {
	return c.Ticker == o.Ticker && c.Amount == o.Amount
}

// IsEmpty returns true on null or zero amount
func IsEmpty(c *Coin) bool {
	return c == nil || c.IsZero()
}

// IsZero returns true if the amount is 0
func (c Coin) IsZero() bool {
	return c.Amount == 0
}

// IsPositive returns true if the value is greater than 0
func (c Coin) IsPositive() bool {
	return c.Amount > 0
}

// IsGTE returns true if c is same type and at least
// as large as o.
func (c Coin) IsGTE(o Coin) bool {
	return c.SameType(o) && c.Amount >= o.Amount
}

// SameType returns true if they have the same currency
func (c Coin) SameType(o Coin) bool {
	return c.Ticker == o.Ticker
}

// Clone provides an independent copy of a coin pointer
func (c *Coin) Clone() *Coin {
	if c == nil {
		return nil
	}
	return &Coin{
		Ticker: c.Ticker,
		Amount: c.Amount,
	}
}

// Validate ensures that the coin has a valid currency code. Any amount
// representable by the type is a valid amount.
func (c Coin) Validate() error {
	if !IsCC(c.Ticker) {
		return errors.Wrapf(errors.ErrCurrency, "invalid currency: %s", c.Ticker)
	}
	return nil
}

func (c *Coin) UnmarshalJSON(raw []byte) error {
	// Prioritize human readable format that is a string in format
	// "<amount> <ticker>"
	var human string
	if err := json.Unmarshal(raw, &human); err == nil {
		parsedCoin, err := ParseHumanFormat(human)
		c.Ticker = parsedCoin.Ticker
		c.Amount = parsedCoin.Amount
		return err
	}

	// Fallback into the default unmarhaling. Because UnmarshalJSON method
	// is provided, we can no longer use Coin type for this.
	var coin struct {
		Amount uint64
		Ticker string
	}
	if err := json.Unmarshal(raw, &coin); err != nil {
		return err
	}
	c.Amount = coin.Amount
	c.Ticker = coin.Ticker
	return nil
}

// String provides a human readable representation of the coin. This function
// is meant mostly for testing and debugging. For a valid coin the result is a
// valid human readable format that can be parsed back. For an invalid coin
// (ie. without a ticker) a readable representation is returned but it cannot
// be parsed back using the human readable format parser.
func (c Coin) String() string {
	var b strings.Builder

	b.WriteString(strconv.FormatUint(c.Amount, 10))

	if c.Ticker != "" {
		b.WriteString(" " + c.Ticker)
	}

	return b.String()
}

// ParseHumanFormat parse a human readable coin representation. Accepted format
// is a string:
//   "<amount> <ticker>"
func ParseHumanFormat(h string) (Coin, error) {
	var c Coin
	results := humanCoinFormatRx.FindAllStringSubmatch(h, -1)
	if len(results) != 1 {
		return c, fmt.Errorf("invalid format")
	}

	result := results[0][1:]

	amount, err := strconv.ParseUint(result[0], 10, 64)
	if err != nil {
		return c, fmt.Errorf("invalid amount value: %s", err)
	}

	return Coin{
		Ticker: result[1],
		Amount: amount,
	}, nil
}

var humanCoinFormatRx = regexp.MustCompile(`^(\d+)\s*([A-Z]{3,4})$`)

// Set updates this coin value to what is provided. This method implements
// flag.Value interface.
func (c *Coin) Set(raw string) error {
	val, err := ParseHumanFormat(raw)
	if err != nil {
		return err
	}
	*c = val
	return nil
}
