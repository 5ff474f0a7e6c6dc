package engine

import (
	"errors"
	"math"
	"strconv"

	"scope-z/src/binding"
	"scope-z/src/settings"
)

var (
	// ErrEngineUnavailable means the engine library or one of its exports could not be loaded.
	ErrEngineUnavailable = errors.New("magnifier engine unavailable")
	// ErrEngineCallFailed means an engine export failed or panicked.
	ErrEngineCallFailed = errors.New("magnifier engine call failed")
	ErrNotRunning       = errors.New("magnifier engine is not running")
	ErrAlreadyRunning   = errors.New("magnifier engine is already running")
)

// Engine export names.
const (
	SymStart       = "StartMagnifier"
	SymUpdate      = "UpdateSettings"
	SymStop        = "StopMagnifier"
	SymCurrentZoom = "GetCurrentZoom"
)

// Symbols lists every export a library must provide.
var Symbols = []string{SymStart, SymUpdate, SymStop, SymCurrentZoom}

// ReservedSlots is the number of zero-filled reserved arguments in Start and Update.
const ReservedSlots = 5

// Library is a loaded engine binary exposing the four control operations.
type Library interface {
	Start(p StartParams) error
	Update(p UpdateParams) error
	Stop() error
	CurrentZoom() (float32, error)
	// Close unloads the library. The engine must be stopped first.
	Close() error
}

// Loader opens the engine library at path.
type Loader func(path string) (Library, error)

// StartParams is the argument set of StartMagnifier.
type StartParams struct {
	LensSize int32
	Zoom     float32
	Toggle   binding.Binding
	ZoomIn   binding.Binding
	ZoomOut  binding.Binding
	Shape    int32
	FPS      int32
}

// UpdateParams is the argument set of UpdateSettings. Bindings cannot change while running.
type UpdateParams struct {
	LensSize int32
	Zoom     float32
	Shape    int32
	FPS      int32
}

func StartParamsFrom(s settings.Settings) StartParams {
	s = s.Normalize()
	return StartParams{
		LensSize: int32(s.LensSize),
		Zoom:     float32(s.ZoomFactor),
		Toggle:   s.Toggle,
		ZoomIn:   s.ZoomIn,
		ZoomOut:  s.ZoomOut,
		Shape:    int32(s.LensShape),
		FPS:      int32(s.FPS),
	}
}

func UpdateParamsFrom(s settings.Settings) UpdateParams {
	s = s.Normalize()
	return UpdateParams{
		LensSize: int32(s.LensSize),
		Zoom:     float32(s.ZoomFactor),
		Shape:    int32(s.LensShape),
		FPS:      int32(s.FPS),
	}
}

// IntArgs returns StartMagnifier's integer arguments in call order, without the zoom factor
// which is passed second as a float.
func (p StartParams) IntArgs() []int32 {
	zin, zout := p.ZoomIn.Modifiers(), p.ZoomOut.Modifiers()
	args := []int32{
		p.LensSize,
		int32(p.Toggle.Code()),
		int32(p.ZoomIn.Code()), flag(zin.Ctrl), flag(zin.Shift), flag(zin.Alt),
		int32(p.ZoomOut.Code()), flag(zout.Ctrl), flag(zout.Shift), flag(zout.Alt),
		p.Shape,
	}
	args = append(args, make([]int32, ReservedSlots)...)
	return append(args, p.FPS)
}

// IntArgs returns UpdateSettings' integer arguments in call order, without the zoom factor.
func (p UpdateParams) IntArgs() []int32 {
	args := []int32{p.LensSize, p.Shape}
	args = append(args, make([]int32, ReservedSlots)...)
	return append(args, p.FPS)
}

func flag(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// widen converts an engine float to float64 using the shortest decimal that round-trips at
// float32 precision, so an engine zoom of 4.2f reads as 4.2.
func widen(f float32) float64 {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return float64(f)
	}
	v, err := strconv.ParseFloat(strconv.FormatFloat(float64(f), 'g', -1, 32), 64)
	if err != nil {
		return float64(f)
	}
	return v
}
