package sample

import (
	"testing"
	"time"

	"github.com/itohio/gofreq/pkg/fc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertReading(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		r      fc.Reading
		want   Sample
		wantOK bool
	}{
		{
			name:   "500 ms gate",
			r:      fc.Reading{Timestamp: now, Frequency: 1000, Gate: 500 * time.Millisecond},
			want:   Sample{Timestamp: now, Frequency: 1000, Resolution: 2},
			wantOK: true,
		},
		{
			name:   "1 s gate",
			r:      fc.Reading{Timestamp: now, Frequency: 2e6, Gate: time.Second},
			want:   Sample{Timestamp: now, Frequency: 2e6, Resolution: 1},
			wantOK: true,
		},
		{
			name:   "missing gate",
			r:      fc.Reading{Timestamp: now, Frequency: 1000},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := convertReading(tt.r)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want.Timestamp, got.Timestamp)
				assert.Equal(t, tt.want.Frequency, got.Frequency)
				assert.InDelta(t, tt.want.Resolution, got.Resolution, 1e-9)
			}
		})
	}
}

func TestNewConverter(t *testing.T) {
	in := make(chan fc.Reading, 4)
	out := NewConverter(0)(in)

	now := time.Now()
	in <- fc.Reading{Timestamp: now, Frequency: 100, Gate: 100 * time.Millisecond}
	in <- fc.Reading{Timestamp: now, Frequency: 200} // dropped
	in <- fc.Reading{Timestamp: now.Add(time.Second), Frequency: 300, Gate: 100 * time.Millisecond}
	close(in)

	var got []Sample
	for s := range out {
		got = append(got, s)
	}

	require.Len(t, got, 2)
	assert.Equal(t, 100.0, got[0].Frequency)
	assert.Equal(t, 300.0, got[1].Frequency)
	assert.InDelta(t, 10.0, got[1].Resolution, 1e-9)
}
