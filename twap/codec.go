package twap

import (
	"bytes"
	"fmt"
	"iter"
	"slices"

	"github.com/goccy/go-json"

	"github.com/teenjuna/rolling/codec"
)

// Channel is the name of the feed channel carrying TWAP history.
const Channel = "twapHistory"

var _ codec.Codec[Fill] = (*Codec)(nil)

// Codec reads and writes the frames of the TWAP history channel:
//
//	{"channel":"twapHistory","data":[...]}
//
// Frames of other channels, such as subscription acknowledgements and pongs, decode to no fills.
type Codec struct {
	buf *bytes.Buffer
}

func NewCodec() *Codec {
	return &Codec{
		buf: new(bytes.Buffer),
	}
}

type envelope struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

type outgoing struct {
	Channel string `json:"channel"`
	Data    []Fill `json:"data"`
}

func (c *Codec) Encode(batch iter.Seq[Fill]) ([]byte, error) {
	fills := slices.Collect(batch)
	if fills == nil {
		fills = make([]Fill, 0)
	}

	c.buf.Reset()
	if err := json.NewEncoder(c.buf).Encode(outgoing{Channel: Channel, Data: fills}); err != nil {
		return nil, err
	}

	return bytes.Clone(c.buf.Bytes()), nil
}

func (c *Codec) Decode(data []byte, push func(Fill)) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Channel != Channel || len(env.Data) == 0 {
		return nil
	}

	var fills []Fill
	if err := json.Unmarshal(env.Data, &fills); err != nil {
		return fmt.Errorf("unmarshal fills: %w", err)
	}
	for _, f := range fills {
		push(f)
	}

	return nil
}

func (c *Codec) Derive() codec.Codec[Fill] {
	return NewCodec()
}

// Subscription returns the message subscribing to the TWAP history of user.
func Subscription(user string) []byte {
	type subscription struct {
		Type string `json:"type"`
		User string `json:"user"`
	}
	msg := struct {
		Method       string       `json:"method"`
		Subscription subscription `json:"subscription"`
	}{
		Method:       "subscribe",
		Subscription: subscription{Type: Channel, User: user},
	}
	// Can't fail on these types.
	data, _ := json.Marshal(msg)
	return data
}
