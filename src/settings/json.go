package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"scope-z/src/binding"
)

// ErrMalformed is returned by Decode when the document is not a JSON object.
var ErrMalformed = errors.New("settings document is not a JSON object")

// fileFormat is the on-disk layout.
type fileFormat struct {
	LensSize         int               `json:"lens_size"`
	ZoomFactor       float64           `json:"zoom_factor"`
	ToggleKey        int               `json:"toggle_key"`
	ToggleModifiers  binding.Modifiers `json:"toggle_modifiers"`
	ZoomInKey        int               `json:"zoom_in_key"`
	ZoomInModifiers  binding.Modifiers `json:"zoom_in_modifiers"`
	ZoomOutKey       int               `json:"zoom_out_key"`
	ZoomOutModifiers binding.Modifiers `json:"zoom_out_modifiers"`
	LensShape        int               `json:"lens_shape"`
	FPS              int               `json:"fps"`
}

var slotKeys = map[Slot][2]string{
	SlotToggle:  {"toggle_key", "toggle_modifiers"},
	SlotZoomIn:  {"zoom_in_key", "zoom_in_modifiers"},
	SlotZoomOut: {"zoom_out_key", "zoom_out_modifiers"},
}

// Encode renders s as indented JSON.
func Encode(s Settings) ([]byte, error) {
	s = s.Normalize()
	f := fileFormat{
		LensSize:         s.LensSize,
		ZoomFactor:       s.ZoomFactor,
		ToggleKey:        int(s.Toggle.Code()),
		ToggleModifiers:  s.Toggle.Modifiers(),
		ZoomInKey:        int(s.ZoomIn.Code()),
		ZoomInModifiers:  s.ZoomIn.Modifiers(),
		ZoomOutKey:       int(s.ZoomOut.Code()),
		ZoomOutModifiers: s.ZoomOut.Modifiers(),
		LensShape:        int(s.LensShape),
		FPS:              s.FPS,
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Decode builds Settings from a JSON document. Every key is decoded on its own: a missing or
// invalid value falls back to that field's default without affecting the others. If the document
// is not a JSON object at all, Decode returns Default() and an error wrapping ErrMalformed.
func Decode(data []byte) (Settings, error) {
	s := Default()

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return s, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw == nil {
		return s, fmt.Errorf("%w: null", ErrMalformed)
	}

	if v, ok := decodeInt(raw["lens_size"]); ok {
		s.LensSize = SnapLensSize(v)
	}
	if v, ok := decodeFloat(raw["zoom_factor"]); ok {
		s.ZoomFactor = ClampZoom(v)
	}
	if v, ok := decodeInt(raw["lens_shape"]); ok {
		s.LensShape = NormalizeShape(Shape(v))
	}
	if v, ok := decodeInt(raw["fps"]); ok {
		s.FPS = NormalizeFPS(v)
	}

	for _, slot := range Slots {
		keys := slotKeys[slot]
		s = s.WithBinding(slot, decodeBinding(slot, raw[keys[0]], raw[keys[1]]))
	}

	return s, nil
}

func decodeBinding(slot Slot, keyRaw, modsRaw json.RawMessage) binding.Binding {
	def := DefaultBinding(slot)

	code := def.Code()
	if v, ok := decodeInt(keyRaw); ok && binding.Validate(binding.Code(v)) == nil {
		code = binding.Code(v)
	}

	mods := def.Modifiers()
	if len(modsRaw) > 0 {
		var m binding.Modifiers
		if err := json.Unmarshal(modsRaw, &m); err == nil {
			mods = m
		}
	}

	b, err := binding.New(code, mods)
	if err != nil {
		return def
	}
	return b
}

// decodeInt accepts integral JSON numbers, including forms like 300.0.
func decodeInt(raw json.RawMessage) (int, bool) {
	v, ok := decodeFloat(raw)
	if !ok || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}

func decodeFloat(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}

// MarshalJSON encodes s in the on-disk layout.
func (s Settings) MarshalJSON() ([]byte, error) {
	return Encode(s)
}

// UnmarshalJSON decodes leniently; only a non-object document is an error.
func (s *Settings) UnmarshalJSON(data []byte) error {
	v, err := Decode(data)
	if err != nil {
		return err
	}
	*s = v
	return nil
}
