package homey

// Capability is a single capability entry on a device, e.g. onoff or dim.
// Value is left untyped: the hub reports booleans for switches, floats
// for dimmers and sensors, and strings for enum capabilities.
type Capability struct {
	Value any    `json:"value"`
	Units string `json:"units,omitempty"`
	Title string `json:"title,omitempty"`
}

// Device is a device as reported by the hub.
// Capabilities is keyed by capability id ("onoff", "dim", ...).
type Device struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Class        string                `json:"class,omitempty"`
	Zone         string                `json:"zoneName,omitempty"`
	Available    bool                  `json:"available"`
	Capabilities map[string]Capability `json:"capabilitiesObj"`
}

// Flow is an automation flow as reported by the hub.
type Flow struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}
