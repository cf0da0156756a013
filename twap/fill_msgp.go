package twap

import (
	"github.com/shopspring/decimal"
	"github.com/tinylib/msgp/msgp"
)

// The msgp methods are maintained by hand: the generator can't see through decimal.Decimal, so
// prices and sizes are encoded as strings.

// MarshalMsg implements msgp.Marshaler
func (f *Fill) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, f.Msgsize())
	// map header, size 7
	o = msgp.AppendMapHeader(o, 7)
	o = msgp.AppendString(o, "id")
	o = msgp.AppendString(o, f.ID)
	o = msgp.AppendString(o, "coin")
	o = msgp.AppendString(o, f.Coin)
	o = msgp.AppendString(o, "side")
	o = msgp.AppendString(o, f.Side)
	o = msgp.AppendString(o, "status")
	o = msgp.AppendString(o, string(f.Status))
	o = msgp.AppendString(o, "time")
	o = msgp.AppendInt64(o, f.Time)
	o = msgp.AppendString(o, "px")
	o = msgp.AppendString(o, f.Price.String())
	o = msgp.AppendString(o, "sz")
	o = msgp.AppendString(o, f.Size.String())
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (f *Fill) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var field []byte
	var zb0001 uint32
	zb0001, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		err = msgp.WrapError(err)
		return
	}
	for zb0001 > 0 {
		zb0001--
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			err = msgp.WrapError(err)
			return
		}
		switch msgp.UnsafeString(field) {
		case "id":
			f.ID, bts, err = msgp.ReadStringBytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "ID")
				return
			}
		case "coin":
			f.Coin, bts, err = msgp.ReadStringBytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "Coin")
				return
			}
		case "side":
			f.Side, bts, err = msgp.ReadStringBytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "Side")
				return
			}
		case "status":
			var zb0002 string
			zb0002, bts, err = msgp.ReadStringBytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "Status")
				return
			}
			f.Status = Status(zb0002)
		case "time":
			f.Time, bts, err = msgp.ReadInt64Bytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "Time")
				return
			}
		case "px":
			f.Price, bts, err = readDecimalBytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "Price")
				return
			}
		case "sz":
			f.Size, bts, err = readDecimalBytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "Size")
				return
			}
		default:
			bts, err = msgp.Skip(bts)
			if err != nil {
				err = msgp.WrapError(err)
				return
			}
		}
	}
	o = bts
	return
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (f *Fill) Msgsize() (s int) {
	s = 1 + 3 + msgp.StringPrefixSize + len(f.ID) +
		5 + msgp.StringPrefixSize + len(f.Coin) +
		5 + msgp.StringPrefixSize + len(f.Side) +
		7 + msgp.StringPrefixSize + len(f.Status) +
		5 + msgp.Int64Size +
		3 + msgp.StringPrefixSize + len(f.Price.String()) +
		3 + msgp.StringPrefixSize + len(f.Size.String())
	return
}

func readDecimalBytes(bts []byte) (decimal.Decimal, []byte, error) {
	s, o, err := msgp.ReadStringBytes(bts)
	if err != nil {
		return decimal.Zero, bts, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, bts, err
	}
	return d, o, nil
}
