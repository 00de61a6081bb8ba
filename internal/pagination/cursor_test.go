package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeCursor(t *testing.T) {
	ts := time.Date(2026, 2, 14, 9, 30, 0, 123456789, time.UTC)

	encoded := EncodeCursor("item-42", ts)
	require.NotEmpty(t, encoded)

	cursor, err := DecodeCursor(encoded)
	require.NoError(t, err)
	assert.Equal(t, "item-42", cursor.LastID)
	assert.True(t, cursor.Timestamp.Equal(ts))
}

func TestEncodeCursor_EmptyID(t *testing.T) {
	assert.Empty(t, EncodeCursor("", time.Now()))
}

func TestEncodeCursor_URLSafe(t *testing.T) {
	encoded := EncodeCursor("item-42", time.Date(2026, 2, 14, 9, 30, 0, 123456789, time.UTC))
	assert.NotContainsf(t, encoded, "+", "cursor must survive a query string unescaped")
	assert.NotContains(t, encoded, "/")
	assert.NotContains(t, encoded, "=")
}

func TestDecodeCursor_Empty(t *testing.T) {
	cursor, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, cursor)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	enc := func(raw string) string {
		return base64.RawURLEncoding.EncodeToString([]byte(raw))
	}

	for name, bad := range map[string]string{
		"not base64":      "%%%",
		"no separator":    enc("noseparator"),
		"bad timestamp":   enc("not-a-time|item-1"),
		"missing id":      enc("2026-02-14T09:30:00Z|"),
		"padded encoding": base64.StdEncoding.EncodeToString([]byte("2026-02-14T09:30:00Z|x")),
	} {
		_, err := DecodeCursor(bad)
		assert.ErrorIs(t, err, ErrInvalidCursor, name)
	}
}
