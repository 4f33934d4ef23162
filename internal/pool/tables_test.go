package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProtectiveDevice(t *testing.T) {
	tests := []struct {
		current float64
		want    int
		ok      bool
	}{
		{0, 6, true},
		{6, 6, true},
		{6.01, 10, true},
		{9.78, 10, true},
		{31.9, 32, true},
		{125, 125, true},
		{125.1, 125, false},
	}

	for _, tt := range tests {
		got, ok := DefaultTable.ProtectiveDevice(tt.current)
		assert.Equal(t, tt.want, got, "current %v", tt.current)
		assert.Equal(t, tt.ok, ok, "current %v", tt.current)
	}
}

func TestAmbientFactor(t *testing.T) {
	assert.Equal(t, 1.03, DefaultTable.AmbientFactor(-10))
	assert.Equal(t, 1.03, DefaultTable.AmbientFactor(25))
	assert.Equal(t, 1.00, DefaultTable.AmbientFactor(30))
	assert.Equal(t, 0.79, DefaultTable.AmbientFactor(42))
	assert.Equal(t, 0.50, DefaultTable.AmbientFactor(60))
	assert.Equal(t, 0.50, DefaultTable.AmbientFactor(80))
}

func TestSelectCable(t *testing.T) {
	tests := []struct {
		name     string
		req      CableRequest
		wantSize float64
		adequate bool
	}{
		{
			name: "capacity governs a short run",
			req: CableRequest{
				Method: MethodClippedDirect, Ambient: 25, DeviceRating: 32,
				Current: 30, Length: 10, Voltage: 230, MaxDropPercent: 5, MinSize: 1.5,
			},
			wantSize: 4,
			adequate: true,
		},
		{
			name: "voltage drop governs a long run",
			req: CableRequest{
				Method: MethodClippedDirect, Ambient: 25, DeviceRating: 32,
				Current: 30, Length: 100, Voltage: 230, MaxDropPercent: 5, MinSize: 1.5,
			},
			wantSize: 16,
			adequate: true,
		},
		{
			name: "enclosed cable needs a larger size",
			req: CableRequest{
				Method: MethodConduit, Ambient: 30, DeviceRating: 25,
				Current: 20, Length: 10, Voltage: 230, MaxDropPercent: 5, MinSize: 1.5,
			},
			wantSize: 4,
			adequate: true,
		},
		{
			name: "minimum size respected",
			req: CableRequest{
				Method: MethodClippedDirect, Ambient: 25, DeviceRating: 6,
				Current: 1, Length: 5, Voltage: 230, MaxDropPercent: 5, MinSize: 1.5,
			},
			wantSize: 1.5,
			adequate: true,
		},
		{
			name: "nothing adequate returns the largest size",
			req: CableRequest{
				Method: MethodBuried, Ambient: 25, DeviceRating: 100,
				Current: 100, Length: 500, Voltage: 230, MaxDropPercent: 5, MinSize: 1.5,
			},
			wantSize: 35,
			adequate: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultTable.SelectCable(tt.req)
			assert.Equal(t, tt.wantSize, got.Size)
			assert.Equal(t, tt.adequate, got.Adequate)
			if got.Adequate {
				assert.GreaterOrEqual(t, got.DeratedCapacity, float64(tt.req.DeviceRating))
				assert.LessOrEqual(t, got.VoltageDropPercent, tt.req.MaxDropPercent)
			}
		})
	}
}

func TestDefaultTableIsComplete(t *testing.T) {
	for method, ratings := range DefaultTable.Ratings {
		for _, r := range ratings {
			_, ok := DefaultTable.VoltageDrop[r.Size]
			assert.True(t, ok, "%s: no voltage drop for %vmm²", method, r.Size)
		}
	}
	for _, m := range []InstallationMethod{MethodClippedDirect, MethodConduit, MethodTrunking, MethodBuried} {
		assert.NotEmpty(t, DefaultTable.Ratings[m], m)
	}
}
