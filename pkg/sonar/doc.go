// Package sonar provides a client for the SteelSeries Sonar local web service.
//
// A Client is built in two steps. The engine's coreProps.json is read to find
// the encrypted local address, and that address is queried for the sonar
// sub-app status to resolve the web server base URL. After that every
// operation is a single validated HTTP round trip.
//
// Client is the blocking API. Client.Async returns an AsyncClient whose methods
// return a Future immediately; both share the same validation and path logic.
package sonar
