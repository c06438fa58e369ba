package config

// Presets are the tested starting scenarios. "approach" is the reference
// setup: 5m left of the target, 5m up, settle at half a meter above ground.
var Presets = map[string]*Config{
	"approach": DefaultConfig(),
	"hover": func() *Config {
		c := DefaultConfig()
		c.InitState = InitStateConfig{X: 0, Y: 0.5}
		return c
	}(),
	"liftoff": func() *Config {
		c := DefaultConfig()
		c.InitState = InitStateConfig{X: 0, Y: 0.5}
		c.Target = TargetConfig{X: 0, Y: 5}
		return c
	}(),
	"tilted": func() *Config {
		c := DefaultConfig()
		c.InitState = InitStateConfig{X: -5, Y: 5, Theta: 0.3}
		return c
	}(),
}

// GetPreset returns a copy of the named preset, or nil if unknown. Callers
// may mutate the result freely.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	copied := *cfg
	return &copied
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
