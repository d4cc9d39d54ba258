package internal

import (
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIterSeq2Concat(t *testing.T) {
	assert := assert.New(t)

	first := slices.All([]string{"a", "b"})
	second := slices.All([]string{"c"})

	var keys []int
	var values []string
	for k, v := range IterSeq2Concat(first, second) {
		keys = append(keys, k)
		values = append(values, v)
	}
	assert.Equal([]int{0, 1, 0}, keys)
	assert.Equal([]string{"a", "b", "c"}, values)

	// Stops early when the consumer does.
	values = nil
	for _, v := range IterSeq2Concat(first, second) {
		values = append(values, v)
		if v == "b" {
			break
		}
	}
	assert.Equal([]string{"a", "b"}, values)

	assert.Empty(maps.Collect(IterSeq2Concat[string, string]()))
}
