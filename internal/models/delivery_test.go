package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeliveryRecord_Succeeded(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{199, false},
		{200, true},
		{299, true},
		{400, false},
		{500, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DeliveryRecord{StatusCode: tt.status}.Succeeded(), "status %d", tt.status)
	}
}
