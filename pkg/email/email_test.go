package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "jane.doe@uni.edu", Normalize("  Jane.Doe@UNI.edu "))
	assert.True(t, Equal("A@b.com", "a@B.COM"))
	assert.False(t, Equal("a@b.com", "c@b.com"))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("jane@uni.edu"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("not-an-email"))
	assert.False(t, Valid("Jane <jane@uni.edu>"))
}

func TestDeriveNameFromEmail(t *testing.T) {
	assert.Equal(t, "Jane Doe", DeriveNameFromEmail("jane.doe@uni.edu"))
	assert.Equal(t, "Raj", DeriveNameFromEmail("raj@uni.edu"))
	assert.Equal(t, "Student", DeriveNameFromEmail("__@uni.edu"))
}
