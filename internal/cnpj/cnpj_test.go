package cnpj

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckDigits_RoundTrip(t *testing.T) {
	// Real-world valid ids: recomputing the pair from the first 12 digits
	// must reproduce the original trailing digits.
	valid := []string{
		"11222333000181",
		"00000000000191",
		"06990590000123",
	}
	for _, id := range valid {
		assert.Equal(t, id[12:], CheckDigits(id[:12]), id)
		assert.True(t, Valid(id), id)
	}
}

func TestCheckDigits_BadInput(t *testing.T) {
	assert.Empty(t, CheckDigits("123"))
	assert.Empty(t, CheckDigits("11222333000A"))
	assert.Empty(t, CheckDigits("1122233300011122"))
}

func TestValid_RejectsWrongCheckPair(t *testing.T) {
	assert.False(t, Valid("11222333000190"))
	assert.False(t, Valid("11222333000118"))
}

func TestValid_RejectsRepeatedDigits(t *testing.T) {
	// All-same-digit ids are rejected regardless of what the weighted sums
	// would produce.
	assert.False(t, Valid("11111111111111"))
	assert.False(t, Valid("00000000000000"))
}

func TestValid_RejectsWrongLength(t *testing.T) {
	assert.False(t, Valid("112223330001"))
	assert.False(t, Valid(""))
}

func TestValid_ToleratesPunctuation(t *testing.T) {
	assert.True(t, Valid("11.222.333/0001-81"))
}

func TestMatrixID(t *testing.T) {
	assert.Equal(t, "11222333000181", MatrixID("11222333"))
	// Short base ids are left-zero-padded to 8 digits.
	assert.Equal(t, "00000000000191", MatrixID("0"))
	// Punctuation in the base id is stripped first.
	assert.Equal(t, "11222333000181", MatrixID("11.222.333"))
}

func TestFullID_PadsParts(t *testing.T) {
	assert.Equal(t, "11222333000181", FullID("11222333", "1", "81"))
	assert.Equal(t, "00004567000209", FullID("4567", "0002", "9"))
}

func TestOnlyDigits(t *testing.T) {
	assert.Equal(t, "5583999112233", OnlyDigits("+55 (83) 99911-2233"))
	assert.Empty(t, OnlyDigits("abc"))
}
