package qr_generator

import (
	"bytes"
	"image/png"
	"testing"

	"ms-booking/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt(t *testing.T) {
	gen := NewQRGenerator("test-secret")
	p := PayloadFor(models.Booking{ID: "b1", EventID: "e1", UserID: "u1", QRCode: "qr-1", Quantity: 2})

	token, err := gen.Encrypt(p)
	require.NoError(t, err)

	other, err := gen.Encrypt(p)
	require.NoError(t, err)
	assert.NotEqual(t, token, other, "random IV should change the ciphertext")

	got, err := gen.Decrypt(token)
	require.NoError(t, err)
	assert.Equal(t, p, *got)
}

func TestDecryptWithWrongSecretFails(t *testing.T) {
	token, err := NewQRGenerator("right").Encrypt(Payload{BookingID: "b1"})
	require.NoError(t, err)

	_, err = NewQRGenerator("wrong").Decrypt(token)
	assert.Error(t, err)

	_, err = NewQRGenerator("right").Decrypt("c2hvcnQ=")
	assert.Error(t, err)
}

func TestGeneratePNG(t *testing.T) {
	img, err := NewQRGenerator("s").GeneratePNG(Payload{BookingID: "b1", QRCode: "qr"})
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(img))
	require.NoError(t, err)
	assert.Equal(t, 256, decoded.Bounds().Dx())
}
