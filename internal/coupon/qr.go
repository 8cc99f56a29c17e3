package coupon

import (
	"bytes"
	"encoding/json"
	"strings"

	"redeemly/internal/model"
)

// QRPayload is the JSON document encoded into a coupon's QR code.
type QRPayload struct {
	CouponID string `json:"couponId"`
}

// EncodeQRPayload returns the QR document for a coupon.
func EncodeQRPayload(couponID string) string {
	b, _ := json.Marshal(QRPayload{CouponID: couponID})
	return string(b)
}

// ParseQRPayload unwraps a scanned QR document into a coupon ID.
// Unknown fields and blank IDs are rejected.
func ParseQRPayload(raw string) (string, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(strings.TrimSpace(raw))))
	dec.DisallowUnknownFields()

	var payload QRPayload
	if err := dec.Decode(&payload); err != nil {
		return "", model.ErrInvalidQRPayload
	}
	if dec.More() {
		return "", model.ErrInvalidQRPayload
	}

	id := strings.TrimSpace(payload.CouponID)
	if id == "" || len(id) > 64 {
		return "", model.ErrInvalidQRPayload
	}

	return id, nil
}
