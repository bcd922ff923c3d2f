package utils

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionIDFormats(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^TXN-[0-9a-f]{8}$`), NewBookingTransactionID())
	assert.Regexp(t, regexp.MustCompile(`^TXN-[0-9A-F-]{10}$`), NewPaymentTransactionID())
	assert.Regexp(t, regexp.MustCompile(`^GW-[0-9A-F]{8}$`), NewGatewayReference())
}

func TestGeneratedIDsAreDistinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewPaymentTransactionID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.NotEqual(t, NewID(), NewID())
	assert.NotEqual(t, NewQRToken(), NewQRToken())
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteJSON(rec, http.StatusOK, map[string]int{"n": 1}))

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
}
