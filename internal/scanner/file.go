package scanner

import (
	"errors"
	"fmt"
	"io"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/identity"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/qr"
)

// ImageDecoder reads one QR symbol from an encoded image.
type ImageDecoder interface {
	DecodeReader(r io.Reader) (string, error)
}

// ScanImage decodes a single uploaded image. A symbol whose text is not a
// JSON identity is reported the same way as no symbol at all.
func ScanImage(dec ImageDecoder, r io.Reader) (string, identity.Payload, error) {
	raw, err := dec.DecodeReader(r)
	if err != nil {
		return "", identity.Payload{}, err
	}
	p, err := identity.Decode(raw)
	if err != nil {
		if errors.Is(err, identity.ErrMalformed) {
			return "", identity.Payload{}, fmt.Errorf("%w: %v", qr.ErrNoCode, err)
		}
		return "", identity.Payload{}, err
	}
	return raw, p, nil
}
