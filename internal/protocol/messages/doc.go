// Package messages defines the concrete records exchanged with the robot
// base controller. Each type is a frame.Unmarshaler over a codec composite
// schema, so the generic frame and framer packages carry them without any
// per-message code.
package messages
