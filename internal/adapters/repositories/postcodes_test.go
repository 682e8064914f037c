package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopDistricts(t *testing.T) {
	postcodes := []string{"CV1 5FB", "cv1 2gn", "LE1 6TE", "LE1 7AA", "B1 1BB", "CV1 1AA", ""}

	assert.Equal(t, []string{"CV1", "LE1", "B1"}, topDistricts(postcodes, 3))
	assert.Equal(t, []string{"CV1"}, topDistricts(postcodes, 1))
	assert.Equal(t, []string{"CV1", "LE1", "B1"}, topDistricts(postcodes, 0))
	assert.Empty(t, topDistricts(nil, 3))
}
