package string

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSnakeCase(t *testing.T) {
	assert.Equal(t, "postal_code", ToSnakeCase("PostalCode"))
	assert.Equal(t, "registration_id", ToSnakeCase("RegistrationID"))
	assert.Equal(t, "email", ToSnakeCase("Email"))
}

func TestTrimAndCollapse(t *testing.T) {
	a, b := "  Asha ", "Pune\t"
	TrimStrings(&a, &b)
	assert.Equal(t, "Asha", a)
	assert.Equal(t, "Pune", b)
	assert.Equal(t, "12 MG Road", CollapseSpaces("  12   MG\nRoad "))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, SplitList(" kafka-1:9092, kafka-2:9092,,kafka-1:9092 ", ","))
	assert.Empty(t, SplitList("  ", ","))
}
