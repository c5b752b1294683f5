// Package transport serves the collection metadata API over HTTP/JSON.
// Handlers decode the wire types, hand them to the service, and encode
// either the response or the classified error envelope. Every request gets
// an id and one log line.
package transport
