// Package hubsettings stores the connection details for the Homey hub.
//
// A single settings row holds the hub name, LAN address and API token.
// The token is encrypted with AES-256-GCM before it touches the
// database and decrypted on load; the encryption boundary is explicit
// in Save and the scan path, nowhere else.
package hubsettings
