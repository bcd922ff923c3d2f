package qr_generator

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"

	"ms-booking/internal/models"

	"github.com/skip2/go-qrcode"
)

// Payload is what a venue scanner recovers from a booking QR code.
type Payload struct {
	BookingID string `json:"bookingId"`
	EventID   string `json:"eventId"`
	UserID    string `json:"userId"`
	QRCode    string `json:"qrCode"`
	Quantity  int    `json:"quantity"`
}

func PayloadFor(b models.Booking) Payload {
	return Payload{
		BookingID: b.ID,
		EventID:   b.EventID,
		UserID:    b.UserID,
		QRCode:    b.QRCode,
		Quantity:  b.Quantity,
	}
}

type QRGenerator struct {
	secret []byte
}

func NewQRGenerator(secret string) *QRGenerator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &QRGenerator{secret: hashed[:]}
}

// GeneratePNG renders the encrypted payload as a 256px PNG.
func (q *QRGenerator) GeneratePNG(p Payload) ([]byte, error) {
	token, err := q.Encrypt(p)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(token, qrcode.Medium, 256)
}

// Encrypt returns the URL-safe base64 of iv||AES-CFB(json(p)).
func (q *QRGenerator) Encrypt(p Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(q.secret)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

func (q *QRGenerator) Decrypt(token string) (*Payload, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aes.BlockSize {
		return nil, errors.New("ciphertext too short")
	}

	block, err := aes.NewCipher(q.secret)
	if err != nil {
		return nil, err
	}

	iv := ciphertext[:aes.BlockSize]
	data := make([]byte, len(ciphertext)-aes.BlockSize)
	cipher.NewCFBDecrypter(block, iv).XORKeyStream(data, ciphertext[aes.BlockSize:])

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.New("invalid QR token")
	}
	return &p, nil
}
