package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmountMatches(t *testing.T) {
	c := Competition{Name: "Filter Coffee Championship", Price: 580}

	assert.True(t, c.AmountMatches(580))
	assert.True(t, c.AmountMatches(580.001))
	assert.False(t, c.AmountMatches(579.99))
	assert.False(t, c.AmountMatches(1180))
}

func TestValid(t *testing.T) {
	c := Competition{Name: "  National Brewer's Cup ", Price: 1180}
	c.Normalize()
	assert.Equal(t, "National Brewer's Cup", c.Name)
	assert.True(t, c.Valid())

	assert.False(t, (&Competition{Name: "", Price: 10}).Valid())
	assert.False(t, (&Competition{Name: "Latte Art", Price: 0}).Valid())
}
