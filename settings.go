package volray

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrInvalidSettings is wrapped by every Validate failure.
var ErrInvalidSettings = errors.New("invalid settings")

type Settings struct {
	VolumeSize    int     `json:"volume_size"`
	WindowSize    int     `json:"window_size"`
	WindowTitle   string  `json:"window_title"`
	StepSize      float32 `json:"step_size"`
	StepMin       float32 `json:"step_min"`
	StepMax       float32 `json:"step_max"`
	StepIncrement float32 `json:"step_increment"`

	RotateDegreesPerFrame float32 `json:"rotate_degrees_per_frame"`
	CameraDistance        float32 `json:"camera_distance"`
	FovDegrees            float32 `json:"fov_degrees"`

	Debug   bool            `json:"debug"`
	Preview PreviewSettings `json:"preview"`
}

type PreviewSettings struct {
	Addr       string `json:"addr"`
	Width      int    `json:"width"`
	IntervalMs int    `json:"interval_ms"`
}

// DefaultSettings matches the reference tutorial configuration: a 128^3
// volume in an 800x800 window, step 1/50 within [1/200, 1/4].
func DefaultSettings() Settings {
	return Settings{
		VolumeSize:            128,
		WindowSize:            800,
		WindowTitle:           "GPU raycasting",
		StepSize:              1.0 / 50.0,
		StepMin:               1.0 / 200.0,
		StepMax:               0.25,
		StepIncrement:         1.0 / 2048.0,
		RotateDegreesPerFrame: 0.25,
		CameraDistance:        2.25,
		FovDegrees:            60,
		Preview: PreviewSettings{
			Addr:       "",
			Width:      256,
			IntervalMs: 100,
		},
	}
}

// LoadSettings reads a JSON settings file on top of DefaultSettings.
// A missing file is not an error; the defaults are returned.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("open settings: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&s); err != nil {
		return s, fmt.Errorf("decode settings %s: %w", path, err)
	}
	return s, s.Validate()
}

func (s Settings) Validate() error {
	if s.VolumeSize < 2 || s.VolumeSize&(s.VolumeSize-1) != 0 {
		return fmt.Errorf("%w: volume_size %d is not a power of two", ErrInvalidSettings, s.VolumeSize)
	}
	if s.WindowSize <= 0 {
		return fmt.Errorf("%w: window_size %d", ErrInvalidSettings, s.WindowSize)
	}
	if s.StepMin <= 0 || s.StepMin > s.StepMax {
		return fmt.Errorf("%w: step bounds [%g, %g]", ErrInvalidSettings, s.StepMin, s.StepMax)
	}
	if s.StepSize < s.StepMin || s.StepSize > s.StepMax {
		return fmt.Errorf("%w: step_size %g outside [%g, %g]", ErrInvalidSettings, s.StepSize, s.StepMin, s.StepMax)
	}
	if s.StepIncrement <= 0 {
		return fmt.Errorf("%w: step_increment %g", ErrInvalidSettings, s.StepIncrement)
	}
	if s.FovDegrees <= 0 || s.FovDegrees >= 180 {
		return fmt.Errorf("%w: fov_degrees %g", ErrInvalidSettings, s.FovDegrees)
	}
	return nil
}
