package homey

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/vstoms/homeydash/internal/infrastructure/logging"
)

// Default timeouts, overridable via Options.
const (
	defaultRequestTimeout = 10 * time.Second
	defaultConnectTimeout = 5 * time.Second
)

// Connection carries the details needed to reach a hub.
// It is a plain value loaded from the active hub_settings row;
// a nil *Connection means no hub has been configured.
type Connection struct {
	// IP is the LAN address of the hub, without scheme or port.
	IP string

	// Token is the bearer token for the hub's local API, in clear.
	Token string
}

// Options configures a Client.
type Options struct {
	// RequestTimeout bounds a whole hub call. Zero means 10s.
	RequestTimeout time.Duration

	// ConnectTimeout bounds the TCP dial. Zero means 5s.
	// Keep this shorter than RequestTimeout so a powered-off hub
	// fails fast.
	ConnectTimeout time.Duration

	Logger *logging.Logger
}

// Client is a fail-soft client for the Homey local API.
// All methods swallow transport and decode errors into zero values;
// failures are logged at debug level only, since an unreachable hub is
// an expected condition, not a fault in this service.
type Client struct {
	conn *Connection
	http *http.Client
	log  *logging.Logger
}

// NewClient builds a Client for the given connection.
// conn may be nil, in which case every method short-circuits.
func NewClient(conn *Connection, opts Options) *Client {
	requestTimeout := opts.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	connectTimeout := opts.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}

	log := opts.Logger
	if log == nil {
		log = logging.Default()
	}

	return &Client{
		conn: conn,
		log:  log,
		http: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: connectTimeout,
				}).DialContext,
			},
		},
	}
}

// Configured reports whether the client has a usable connection.
func (c *Client) Configured() bool {
	return c.conn != nil && c.conn.IP != "" && c.conn.Token != ""
}

// Devices returns all devices known to the hub, keyed by device id.
// Returns an empty map when the hub is unconfigured or unreachable.
func (c *Client) Devices(ctx context.Context) map[string]Device {
	devices := make(map[string]Device)
	if !c.Configured() {
		return devices
	}

	if err := c.get(ctx, "/manager/devices/device", &devices); err != nil {
		c.log.Debug("hub devices fetch failed", "error", err)
		return map[string]Device{}
	}

	// The hub keys the response by id but omits it from some payloads.
	for id, d := range devices {
		d.ID = id
		devices[id] = d
	}
	return devices
}

// Device returns a single device, or nil if the hub is unconfigured,
// unreachable or does not know the id.
func (c *Client) Device(ctx context.Context, id string) *Device {
	if !c.Configured() {
		return nil
	}

	var device Device
	if err := c.get(ctx, "/manager/devices/device/"+id, &device); err != nil {
		c.log.Debug("hub device fetch failed", "device_id", id, "error", err)
		return nil
	}
	if device.ID == "" {
		device.ID = id
	}
	return &device
}

// SetCapability sets a capability value on a device, e.g. onoff=true.
// Returns false on any failure.
func (c *Client) SetCapability(ctx context.Context, deviceID, capability string, value any) bool {
	if !c.Configured() {
		return false
	}

	path := fmt.Sprintf("/manager/devices/device/%s/capability/%s", deviceID, capability)
	body := map[string]any{"value": value}

	if err := c.do(ctx, http.MethodPut, path, body, nil); err != nil {
		c.log.Debug("hub capability set failed",
			"device_id", deviceID, "capability", capability, "error", err)
		return false
	}
	return true
}

// DeviceStates returns the current capability map for each requested
// device id. Unknown or unreachable ids are omitted from the result.
func (c *Client) DeviceStates(ctx context.Context, ids []string) map[string]map[string]Capability {
	states := make(map[string]map[string]Capability)
	if !c.Configured() {
		return states
	}

	for _, id := range ids {
		device := c.Device(ctx, id)
		if device == nil {
			continue
		}
		caps := device.Capabilities
		if caps == nil {
			caps = map[string]Capability{}
		}
		states[id] = caps
	}
	return states
}

// Flows returns all flows known to the hub, keyed by flow id.
// Returns an empty map when the hub is unconfigured or unreachable.
func (c *Client) Flows(ctx context.Context) map[string]Flow {
	flows := make(map[string]Flow)
	if !c.Configured() {
		return flows
	}

	if err := c.get(ctx, "/manager/flow/flow", &flows); err != nil {
		c.log.Debug("hub flows fetch failed", "error", err)
		return map[string]Flow{}
	}

	for id, f := range flows {
		f.ID = id
		flows[id] = f
	}
	return flows
}

// TriggerFlow starts a flow on the hub. Returns false on any failure.
func (c *Client) TriggerFlow(ctx context.Context, id string) bool {
	if !c.Configured() {
		return false
	}

	if err := c.do(ctx, http.MethodPost, "/manager/flow/flow/"+id+"/trigger", nil, nil); err != nil {
		c.log.Debug("hub flow trigger failed", "flow_id", id, "error", err)
		return false
	}
	return true
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// do performs a single authenticated request against the hub API.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	url := "http://" + c.conn.IP + "/api" + path

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.conn.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("hub returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
