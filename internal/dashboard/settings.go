package dashboard

// ItemSettings is the per-item display configuration stored as a JSON
// blob on dashboard_items. Every field is optional: nil means "never
// set", which is distinct from an explicit false or empty list. Merge
// only ever writes the fields a request actually carried, so partial
// updates cannot erase earlier choices.
type ItemSettings struct {
	DisplayCapabilities *[]string `json:"display_capabilities,omitempty"`
	ShowToggle          *bool     `json:"show_toggle,omitempty"`
	ShowDimmer          *bool     `json:"show_dimmer,omitempty"`
	ShowThermostat      *bool     `json:"show_thermostat,omitempty"`
}

// Merge returns a copy of s with the non-nil fields of partial applied.
// Merging the same partial twice yields the same result.
func (s ItemSettings) Merge(partial ItemSettings) ItemSettings {
	merged := s
	if partial.DisplayCapabilities != nil {
		caps := append([]string(nil), (*partial.DisplayCapabilities)...)
		merged.DisplayCapabilities = &caps
	}
	if partial.ShowToggle != nil {
		v := *partial.ShowToggle
		merged.ShowToggle = &v
	}
	if partial.ShowDimmer != nil {
		v := *partial.ShowDimmer
		merged.ShowDimmer = &v
	}
	if partial.ShowThermostat != nil {
		v := *partial.ShowThermostat
		merged.ShowThermostat = &v
	}
	return merged
}

// EffectiveSettings is ItemSettings with defaults resolved: controls
// are shown unless explicitly hidden, and the capability list defaults
// to empty (meaning "show everything the renderer supports").
type EffectiveSettings struct {
	DisplayCapabilities []string `json:"display_capabilities"`
	ShowToggle          bool     `json:"show_toggle"`
	ShowDimmer          bool     `json:"show_dimmer"`
	ShowThermostat      bool     `json:"show_thermostat"`
}

// Effective resolves the implicit defaults. This is the only place
// defaults live; they are applied at read time and never written back
// to the stored settings.
func (s ItemSettings) Effective() EffectiveSettings {
	eff := EffectiveSettings{
		DisplayCapabilities: []string{},
		ShowToggle:          true,
		ShowDimmer:          true,
		ShowThermostat:      true,
	}
	if s.DisplayCapabilities != nil {
		eff.DisplayCapabilities = append([]string{}, (*s.DisplayCapabilities)...)
	}
	if s.ShowToggle != nil {
		eff.ShowToggle = *s.ShowToggle
	}
	if s.ShowDimmer != nil {
		eff.ShowDimmer = *s.ShowDimmer
	}
	if s.ShowThermostat != nil {
		eff.ShowThermostat = *s.ShowThermostat
	}
	return eff
}
