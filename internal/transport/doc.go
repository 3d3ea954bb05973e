// Package transport opens the byte streams a session.Link runs over: TCP in
// either direction and serial ports.
package transport
