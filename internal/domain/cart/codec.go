package cart

import (
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Encode writes the cart as the session representation: an object keyed by
// product id whose values are {"nombre","cantidad","precio","imagen"}.
func (c *Cart) Encode(e *jx.Encoder) {
	e.ObjStart()
	for _, id := range c.order {
		l := c.lines[id]
		e.FieldStart(id)
		e.ObjStart()
		e.FieldStart("nombre")
		e.Str(l.Name)
		e.FieldStart("cantidad")
		e.Int(l.Quantity)
		e.FieldStart("precio")
		e.Num(jx.Num(l.Price.String()))
		e.FieldStart("imagen")
		e.Str(l.Image)
		e.ObjEnd()
	}
	e.ObjEnd()
}

// MarshalJSON implements json.Marshaler.
func (c *Cart) MarshalJSON() ([]byte, error) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	c.Encode(e)
	return append([]byte(nil), e.Bytes()...), nil
}

// Decode reads the session representation written by Encode. Prices stored
// as strings are accepted as well as numbers. Lines with a non-positive
// quantity are dropped and larger ones are capped at MaxQuantity.
func (c *Cart) Decode(d *jx.Decoder) error {
	c.clear()
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		l := Line{ProductID: string(key)}
		if err := decodeLine(d, &l); err != nil {
			return errors.Wrapf(err, "line %q", l.ProductID)
		}
		if l.Quantity < 1 {
			return nil
		}
		l.Quantity = min(l.Quantity, MaxQuantity)
		c.put(l)
		return nil
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Cart) UnmarshalJSON(data []byte) error {
	return c.Decode(jx.DecodeBytes(data))
}

func decodeLine(d *jx.Decoder, l *Line) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "nombre":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "nombre")
			}
			l.Name = v
		case "cantidad":
			v, err := decodeInt(d)
			if err != nil {
				return errors.Wrap(err, "cantidad")
			}
			l.Quantity = v
		case "precio":
			v, err := decodeDecimal(d)
			if err != nil {
				return errors.Wrap(err, "precio")
			}
			l.Price = v
		case "imagen":
			if d.Next() == jx.Null {
				return d.Null()
			}
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "imagen")
			}
			l.Image = v
		default:
			return d.Skip()
		}
		return nil
	})
}

func decodeInt(d *jx.Decoder) (int, error) {
	if d.Next() == jx.String {
		s, err := d.Str()
		if err != nil {
			return 0, err
		}
		return strconv.Atoi(s)
	}
	return d.Int()
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		raw = s
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		raw = n.String()
	default:
		return decimal.Zero, errors.Errorf("unexpected %s", d.Next())
	}
	return decimal.NewFromString(raw)
}
