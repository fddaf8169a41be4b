package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Page
		want Page
	}{
		{"zero value", Page{}, Page{Limit: DefaultPageLimit}},
		{"explicit", Page{Limit: 10, Offset: 20}, Page{Limit: 10, Offset: 20}},
		{"too large", Page{Limit: 5000}, Page{Limit: MaxPageLimit}},
		{"negative", Page{Limit: -1, Offset: -5}, Page{Limit: DefaultPageLimit}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}
