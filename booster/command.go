package booster

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Action names a control-surface command.
type Action string

// Recognized actions.
const (
	ActionToggleBooster    Action = "toggleBooster"
	ActionToggleFloatingUI Action = "toggleFloatingUI"
	ActionUpdateGain       Action = "updateGain"
	ActionUpdateCompressor Action = "updateCompressor"
	ActionUpdateLimiter    Action = "updateLimiter"
	ActionApplyPreset      Action = "applyPreset"
)

// Command errors.
var (
	ErrUnknownAction  = errors.New("booster: unknown action")
	ErrInvalidPayload = errors.New("booster: invalid payload")
)

// Command is a message from a control surface, in its wire form.
type Command struct {
	Action   Action          `json:"action"`
	Enabled  *bool           `json:"enabled,omitempty"`
	Value    *float64        `json:"value,omitempty"`
	Preset   string          `json:"preset,omitempty"`
	Settings json.RawMessage `json:"settings,omitempty"`
}

// Response acknowledges a Command.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func succeeded() Response { return Response{Success: true} }

func failed(err error) Response { return Response{Error: err.Error()} }

// DecodeCommand parses and validates a wire command.
func DecodeCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if err := cmd.Validate(); err != nil {
		return Command{}, err
	}

	return cmd, nil
}

// Validate checks that the payload matches the action.
func (c Command) Validate() error {
	switch c.Action {
	case ActionToggleBooster:
		if c.Enabled == nil {
			return fmt.Errorf("%w: %s needs enabled", ErrInvalidPayload, c.Action)
		}
	case ActionToggleFloatingUI:
	case ActionUpdateGain:
		if c.Value == nil {
			return fmt.Errorf("%w: %s needs value", ErrInvalidPayload, c.Action)
		}

		if !validGain(*c.Value) {
			return fmt.Errorf("%w: gain %v", ErrInvalidPayload, *c.Value)
		}
	case ActionUpdateCompressor:
		if _, err := c.CompressorPatch(); err != nil {
			return err
		}
	case ActionUpdateLimiter:
		if _, err := c.LimiterPatch(); err != nil {
			return err
		}
	case ActionApplyPreset:
		if _, found := LookupPreset(c.Preset); !found {
			return fmt.Errorf("%w: unknown preset %q", ErrInvalidPayload, c.Preset)
		}
	default:
		return fmt.Errorf("%w %q", ErrUnknownAction, c.Action)
	}

	return nil
}

// CompressorPatch decodes the settings payload of an updateCompressor command.
func (c Command) CompressorPatch() (CompressorPatch, error) {
	var p CompressorPatch
	err := decodeSettings(c.Settings, &p)

	return p, err
}

// LimiterPatch decodes the settings payload of an updateLimiter command.
func (c Command) LimiterPatch() (LimiterPatch, error) {
	var p LimiterPatch
	err := decodeSettings(c.Settings, &p)

	return p, err
}

func decodeSettings(raw json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("%w: settings must be an object", ErrInvalidPayload)
	}

	if err := json.Unmarshal(trimmed, dst); err != nil {
		return fmt.Errorf("%w: settings: %v", ErrInvalidPayload, err)
	}

	return nil
}

// ToggleBooster builds a toggleBooster command.
func ToggleBooster(enabled bool) Command {
	return Command{Action: ActionToggleBooster, Enabled: &enabled}
}

// ToggleFloatingUI builds a toggleFloatingUI command.
func ToggleFloatingUI() Command {
	return Command{Action: ActionToggleFloatingUI}
}

// UpdateGain builds an updateGain command.
func UpdateGain(value float64) Command {
	return Command{Action: ActionUpdateGain, Value: &value}
}

// UpdateCompressor builds an updateCompressor command.
func UpdateCompressor(p CompressorPatch) Command {
	return Command{Action: ActionUpdateCompressor, Settings: mustSettings(p)}
}

// UpdateLimiter builds an updateLimiter command.
func UpdateLimiter(p LimiterPatch) Command {
	return Command{Action: ActionUpdateLimiter, Settings: mustSettings(p)}
}

// ApplyPreset builds an applyPreset command.
func ApplyPreset(name string) Command {
	return Command{Action: ActionApplyPreset, Preset: name}
}

// Float returns a pointer to v, for building patches.
func Float(v float64) *float64 { return &v }

func mustSettings(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		// Patches hold only float pointers; NaN and Inf are the sole failure.
		return json.RawMessage(`{}`)
	}

	return raw
}
