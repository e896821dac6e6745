package decoder

import "image"

// Decoder turns an encoded frame back into tightly packed RGBA pixels ready
// for a relay.
type Decoder interface {
	Decode(data []byte) (*image.RGBA, error)
}
