// Package homey talks to a Homey hub over its local REST API.
//
// The hub lives on the LAN and serves dashboards in someone's home, so
// the client is deliberately fail-soft: any transport or decode error
// collapses to an empty result rather than an error. A dashboard with
// stale tiles beats a dashboard that won't render because a light bulb
// dropped off the network.
//
// Connection details come from the hub_settings table, so a Client is
// constructed per request from a Connection value. A nil Connection
// means the hub has never been configured and every call short-circuits
// without network I/O.
package homey
