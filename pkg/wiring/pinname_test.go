package wiring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAnalogPinName(t *testing.T) {
	tests := []struct {
		name    string
		channel int
		wantErr bool
	}{
		{name: "A0", channel: 0},
		{name: "A5", channel: 5},
		{name: "a13", channel: 13},
		{name: "A007", channel: 7},
		{name: "", wantErr: true},
		{name: "A", wantErr: true},
		{name: "B3", wantErr: true},
		{name: "A-1", wantErr: true},
		{name: "A1x", wantErr: true},
		{name: "AA0", wantErr: true},
		{name: "A999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			channel, err := ParseAnalogPinName(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPinName)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.channel, channel)
		})
	}
}
