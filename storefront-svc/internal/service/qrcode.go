package service

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// QRReceiptGenerator renders a PNG QR code linking to the order's receipt page.
type QRReceiptGenerator struct {
	BaseURL string
}

func (g QRReceiptGenerator) ReceiptURL(orderID int64) string {
	return fmt.Sprintf("%s/orders/%d", g.BaseURL, orderID)
}

func (g QRReceiptGenerator) Generate(orderID int64) ([]byte, error) {
	return qrcode.Encode(g.ReceiptURL(orderID), qrcode.Medium, 256)
}
