package models

import (
	"math"
	"strings"
)

// Competition is a catalog entry participants register for. Price is in
// rupees and includes tax.
type Competition struct {
	ID               string  `json:"_id" yaml:"id,omitempty"`
	Name             string  `json:"name" yaml:"name"`
	Price            float64 `json:"price" yaml:"price"`
	PassportRequired bool    `json:"passportRequired" yaml:"passportRequired"`
}

// AmountMatches reports whether a client-supplied amount equals the catalog
// price to the paisa.
func (c *Competition) AmountMatches(amount float64) bool {
	return math.Round(amount*100) == math.Round(c.Price*100)
}

// Normalize trims the name.
func (c *Competition) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
}

// Valid reports whether the entry can be stored.
func (c *Competition) Valid() bool {
	return c.Name != "" && c.Price > 0
}
