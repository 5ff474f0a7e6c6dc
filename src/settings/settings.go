package settings

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"scope-z/src/binding"
)

const (
	MinLensSize     = 50
	MaxLensSize     = 1000
	LensSizeStep    = 50
	DefaultLensSize = 300

	MinZoom     = 1.0
	MaxZoom     = 10.0
	ZoomStep    = 0.5
	DefaultZoom = 3.0

	DefaultFPS = 60
)

// FPSOptions are the frame-rate caps the engine accepts, in slider order.
var FPSOptions = []int{30, 60, 75, 120, 144, 240}

// Shape is the lens outline.
type Shape int

const (
	Circle Shape = iota
	Rectangle
)

func (s Shape) String() string {
	switch s {
	case Circle:
		return "circle"
	case Rectangle:
		return "rectangle"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// ParseShape accepts "circle"/"rectangle" (also "rect") or the numeric index.
func ParseShape(v string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "circle", "0":
		return Circle, nil
	case "rectangle", "rect", "1":
		return Rectangle, nil
	}
	return Circle, fmt.Errorf("unknown lens shape %q", v)
}

// Slot names one of the three bindable actions.
type Slot int

const (
	SlotToggle Slot = iota
	SlotZoomIn
	SlotZoomOut
)

// Slots lists every slot in display order.
var Slots = []Slot{SlotToggle, SlotZoomIn, SlotZoomOut}

func (s Slot) String() string {
	switch s {
	case SlotToggle:
		return "toggle"
	case SlotZoomIn:
		return "zoom_in"
	case SlotZoomOut:
		return "zoom_out"
	default:
		return fmt.Sprintf("slot(%d)", int(s))
	}
}

// Label is the human-readable slot name used in the window and tray.
func (s Slot) Label() string {
	switch s {
	case SlotToggle:
		return "Toggle"
	case SlotZoomIn:
		return "Zoom in"
	case SlotZoomOut:
		return "Zoom out"
	default:
		return s.String()
	}
}

func ParseSlot(v string) (Slot, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(v)), "-", "_") {
	case "toggle":
		return SlotToggle, nil
	case "zoom_in", "zoomin":
		return SlotZoomIn, nil
	case "zoom_out", "zoomout":
		return SlotZoomOut, nil
	}
	return SlotToggle, fmt.Errorf("unknown binding slot %q (want toggle, zoom_in or zoom_out)", v)
}

var defaultBindings = map[Slot]binding.Binding{
	SlotToggle:  binding.MustNew(binding.MouseX1, binding.Modifiers{}),
	SlotZoomIn:  binding.MustNew(binding.WheelUp, binding.Modifiers{Ctrl: true}),
	SlotZoomOut: binding.MustNew(binding.WheelDown, binding.Modifiers{Ctrl: true}),
}

// DefaultBinding returns the stock binding for slot.
func DefaultBinding(slot Slot) binding.Binding { return defaultBindings[slot] }

// Settings is the complete magnifier configuration. Values built through Default, Normalize or
// Decode always hold in-domain values.
type Settings struct {
	LensSize   int
	ZoomFactor float64
	Toggle     binding.Binding
	ZoomIn     binding.Binding
	ZoomOut    binding.Binding
	LensShape  Shape
	FPS        int
}

func Default() Settings {
	return Settings{
		LensSize:   DefaultLensSize,
		ZoomFactor: DefaultZoom,
		Toggle:     DefaultBinding(SlotToggle),
		ZoomIn:     DefaultBinding(SlotZoomIn),
		ZoomOut:    DefaultBinding(SlotZoomOut),
		LensShape:  Circle,
		FPS:        DefaultFPS,
	}
}

// Normalize clamps or defaults every field independently.
func (s Settings) Normalize() Settings {
	s.LensSize = SnapLensSize(s.LensSize)
	s.ZoomFactor = ClampZoom(s.ZoomFactor)
	s.LensShape = NormalizeShape(s.LensShape)
	s.FPS = NormalizeFPS(s.FPS)
	for _, slot := range Slots {
		if b := s.Binding(slot); b.IsZero() || binding.Validate(b.Code()) != nil {
			s = s.WithBinding(slot, DefaultBinding(slot))
		}
	}
	return s
}

// Binding returns the binding assigned to slot.
func (s Settings) Binding(slot Slot) binding.Binding {
	switch slot {
	case SlotZoomIn:
		return s.ZoomIn
	case SlotZoomOut:
		return s.ZoomOut
	default:
		return s.Toggle
	}
}

// WithBinding returns a copy of s with slot replaced by b.
func (s Settings) WithBinding(slot Slot, b binding.Binding) Settings {
	switch slot {
	case SlotZoomIn:
		s.ZoomIn = b
	case SlotZoomOut:
		s.ZoomOut = b
	default:
		s.Toggle = b
	}
	return s
}

// Equal compares every field; bindings compare by code and modifiers.
func (s Settings) Equal(o Settings) bool {
	return s.LensSize == o.LensSize &&
		s.ZoomFactor == o.ZoomFactor &&
		s.LensShape == o.LensShape &&
		s.FPS == o.FPS &&
		s.Toggle.Equal(o.Toggle) &&
		s.ZoomIn.Equal(o.ZoomIn) &&
		s.ZoomOut.Equal(o.ZoomOut)
}

// BindingsEqual reports whether s and o assign the same three bindings.
func (s Settings) BindingsEqual(o Settings) bool {
	return s.Toggle.Equal(o.Toggle) && s.ZoomIn.Equal(o.ZoomIn) && s.ZoomOut.Equal(o.ZoomOut)
}

func ClampLensSize(v int) int {
	return min(max(v, MinLensSize), MaxLensSize)
}

// ClampZoom clamps v into [MinZoom, MaxZoom]. NaN and infinities map to DefaultZoom.
func ClampZoom(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return DefaultZoom
	}
	return math.Min(math.Max(v, MinZoom), MaxZoom)
}

func NormalizeShape(s Shape) Shape {
	if s != Circle && s != Rectangle {
		return Circle
	}
	return s
}

// NormalizeFPS returns v when it is one of FPSOptions and DefaultFPS otherwise.
func NormalizeFPS(v int) int {
	if ValidFPS(v) {
		return v
	}
	return DefaultFPS
}

func ValidFPS(v int) bool { return slices.Contains(FPSOptions, v) }

// FPSIndex is the slider position of v; unknown values map to the position of DefaultFPS.
func FPSIndex(v int) int {
	if i := slices.Index(FPSOptions, v); i >= 0 {
		return i
	}
	return slices.Index(FPSOptions, DefaultFPS)
}

// SnapLensSize rounds v to the nearest LensSizeStep inside the domain.
func SnapLensSize(v int) int {
	return ClampLensSize(int(math.Round(float64(v)/LensSizeStep)) * LensSizeStep)
}

// SnapZoom rounds v to the nearest ZoomStep inside the domain. Used by UI increments.
func SnapZoom(v float64) float64 {
	return ClampZoom(math.Round(v/ZoomStep) * ZoomStep)
}
