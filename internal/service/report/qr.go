package report

import (
	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"
)

// QRCode encodes content as a size x size PNG.
func QRCode(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, errors.New("qr content is empty")
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, errors.Wrap(err, "encoding qr code")
	}
	return png, nil
}
