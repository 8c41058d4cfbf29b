package render

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"

	qrcode "github.com/skip2/go-qrcode"
)

// qrPixelsPerPoint is the bitmap resolution of QR images.
const qrPixelsPerPoint = 4

// PrepareQR encodes value as a QR code sized to the larger side of the scaled
// box of p, anchored at the box's top-left corner. An empty value yields nil.
// The error reports content that does not fit in a QR symbol.
func PrepareQR(p Placement, ratio float64, value string) (*ImageOp, error) {
	if value == "" {
		return nil, nil
	}
	box := p.Box(ratio)
	size := math.Max(box.W, box.H)

	png, err := qrcode.Encode(value, qrcode.Medium, int(math.Ceil(size*qrPixelsPerPoint)))
	if err != nil {
		return nil, fmt.Errorf("cannot encode %d bytes as QR code: %w", len(value), err)
	}
	sum := sha256.Sum256(png)
	return &ImageOp{
		Name: "qr-" + hex.EncodeToString(sum[:8]),
		PNG:  png,
		X:    box.X + textInset,
		Y:    box.Y,
		Size: size,
	}, nil
}
