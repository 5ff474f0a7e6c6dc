package settings

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scope-z/src/binding"
)

func TestDefaults(t *testing.T) {
	s := Default()

	assert.Equal(t, 300, s.LensSize)
	assert.Equal(t, 3.0, s.ZoomFactor)
	assert.Equal(t, Circle, s.LensShape)
	assert.Equal(t, 60, s.FPS)
	assert.Equal(t, "Mouse 4", s.Toggle.DisplayName())
	assert.Equal(t, "Ctrl+Wheel Up", s.ZoomIn.DisplayName())
	assert.Equal(t, "Ctrl+Wheel Down", s.ZoomOut.DisplayName())
}

func TestNormalizeClampsEachField(t *testing.T) {
	s := Settings{LensSize: 5000, ZoomFactor: 0.2, LensShape: Shape(7), FPS: 59}.Normalize()

	assert.Equal(t, MaxLensSize, s.LensSize)
	assert.Equal(t, MinZoom, s.ZoomFactor)
	assert.Equal(t, Circle, s.LensShape)
	assert.Equal(t, DefaultFPS, s.FPS)
	assert.True(t, s.Toggle.Equal(DefaultBinding(SlotToggle)))
	assert.True(t, s.ZoomIn.Equal(DefaultBinding(SlotZoomIn)))
	assert.True(t, s.ZoomOut.Equal(DefaultBinding(SlotZoomOut)))
}

func TestNormalizeSnapsLensSizeButNotZoom(t *testing.T) {
	s := Settings{LensSize: 333, ZoomFactor: 2.37, FPS: 60}.Normalize()

	assert.Equal(t, 350, s.LensSize)
	assert.InDelta(t, 2.37, s.ZoomFactor, 1e-9)

	assert.Equal(t, 300, Settings{LensSize: 324}.Normalize().LensSize)
	assert.Equal(t, MinLensSize, Settings{LensSize: 10}.Normalize().LensSize)
}

func TestClampZoom(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"in range keeps off-step value", 4.2, 4.2},
		{"below", 0, MinZoom},
		{"above", 12.5, MaxZoom},
		{"nan", math.NaN(), DefaultZoom},
		{"inf", math.Inf(1), DefaultZoom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampZoom(tt.in))
		})
	}
}

func TestSnap(t *testing.T) {
	assert.Equal(t, 300, SnapLensSize(310))
	assert.Equal(t, 350, SnapLensSize(326))
	assert.Equal(t, MinLensSize, SnapLensSize(0))
	assert.Equal(t, 4.0, SnapZoom(4.2))
	assert.Equal(t, 4.5, SnapZoom(4.3))
	assert.Equal(t, MaxZoom, SnapZoom(99))
}

func TestFPSIndex(t *testing.T) {
	assert.Equal(t, 0, FPSIndex(30))
	assert.Equal(t, 5, FPSIndex(240))
	assert.Equal(t, 1, FPSIndex(61), "unknown values fall back to the 60 fps position")
}

func TestDecodeFPSOutsideSetFallsBackTo60(t *testing.T) {
	for _, fps := range []string{"0", "59", "100", "1000", "-30", "60.5", `"60"`} {
		t.Run(fps, func(t *testing.T) {
			s, err := Decode([]byte(`{"fps": ` + fps + `}`))
			require.NoError(t, err)
			assert.Equal(t, 60, s.FPS)
		})
	}
}

func TestDecodeMissingKeysDefaultIndividually(t *testing.T) {
	s, err := Decode([]byte(`{"lens_size": 450, "zoom_in_key": 116}`))
	require.NoError(t, err)

	assert.Equal(t, 450, s.LensSize)
	assert.Equal(t, DefaultZoom, s.ZoomFactor)
	assert.Equal(t, "Ctrl+F5", s.ZoomIn.DisplayName(), "missing modifiers keep the slot default")
	assert.True(t, s.ZoomOut.Equal(DefaultBinding(SlotZoomOut)))
}

func TestDecodeSnapsLensSize(t *testing.T) {
	s, err := Decode([]byte(`{"lens_size": 333, "zoom_factor": 2.37}`))
	require.NoError(t, err)

	assert.Equal(t, 350, s.LensSize)
	assert.InDelta(t, 2.37, s.ZoomFactor, 1e-9)
}

func TestDecodeInvalidFieldsDefault(t *testing.T) {
	doc := `{
		"lens_size": "big",
		"zoom_factor": 42,
		"toggle_key": 17,
		"toggle_modifiers": {"ctrl": true},
		"zoom_in_key": 70000,
		"zoom_out_key": 513,
		"zoom_out_modifiers": "shift",
		"lens_shape": 3,
		"fps": 144
	}`
	s, err := Decode([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, DefaultLensSize, s.LensSize)
	assert.Equal(t, MaxZoom, s.ZoomFactor)
	assert.Equal(t, binding.MouseX1, s.Toggle.Code(), "bare Ctrl falls back to the default code")
	assert.Equal(t, binding.WheelUp, s.ZoomIn.Code())
	assert.Equal(t, binding.Modifiers{Ctrl: true}, s.ZoomOut.Modifiers())
	assert.Equal(t, Circle, s.LensShape)
	assert.Equal(t, 144, s.FPS)
}

func TestDecodeMalformedReturnsDefaults(t *testing.T) {
	for _, doc := range []string{"", "{", "[]", "null", "42", `{"lens_size": }`} {
		t.Run(doc, func(t *testing.T) {
			s, err := Decode([]byte(doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed))
			assert.True(t, s.Equal(Default()))
		})
	}
}

func TestEncodeUsesDocumentedKeys(t *testing.T) {
	data, err := Encode(Default())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, float64(300), raw["lens_size"])
	assert.Equal(t, 3.0, raw["zoom_factor"])
	assert.Equal(t, float64(0x05), raw["toggle_key"])
	assert.Equal(t, float64(0x200), raw["zoom_in_key"])
	assert.Equal(t, float64(0x201), raw["zoom_out_key"])
	assert.Equal(t, map[string]any{"ctrl": true, "shift": false, "alt": false}, raw["zoom_in_modifiers"])
	assert.Equal(t, float64(0), raw["lens_shape"])
	assert.Equal(t, float64(60), raw["fps"])
}

func TestRoundTripAcrossDomain(t *testing.T) {
	keys := []binding.Binding{
		binding.MustNew(binding.MouseRight, binding.Modifiers{}),
		binding.MustNew(binding.WheelDown, binding.Modifiers{Shift: true, Alt: true}),
		binding.MustNew(0x74, binding.Modifiers{Ctrl: true}),
		binding.MustNew('Z', binding.Modifiers{Ctrl: true, Shift: true, Alt: true}),
	}

	for size := MinLensSize; size <= MaxLensSize; size += LensSizeStep {
		for zoom := MinZoom; zoom <= MaxZoom; zoom += ZoomStep {
			for i, fps := range FPSOptions {
				in := Settings{
					LensSize:   size,
					ZoomFactor: zoom,
					Toggle:     keys[i%len(keys)],
					ZoomIn:     keys[(i+1)%len(keys)],
					ZoomOut:    keys[(i+2)%len(keys)],
					LensShape:  Shape(i % 2),
					FPS:        fps,
				}
				data, err := json.Marshal(in)
				require.NoError(t, err)
				var out Settings
				require.NoError(t, json.Unmarshal(data, &out))
				require.True(t, in.Equal(out), "round trip mismatch for %s", data)
			}
		}
	}
}

func TestRoundTripKeepsReconciledZoom(t *testing.T) {
	in := Default()
	in.ZoomFactor = 4.2

	data, err := Encode(in)
	require.NoError(t, err)
	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 4.2, out.ZoomFactor)
}

func TestParseSlotAndShape(t *testing.T) {
	slot, err := ParseSlot("zoom-in")
	require.NoError(t, err)
	assert.Equal(t, SlotZoomIn, slot)
	_, err = ParseSlot("pan")
	assert.Error(t, err)

	shape, err := ParseShape("Rect")
	require.NoError(t, err)
	assert.Equal(t, Rectangle, shape)
	_, err = ParseShape("triangle")
	assert.Error(t, err)
}
