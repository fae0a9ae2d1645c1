// Package pathwire provides the PathWire frame protocol core.
//
// PathWire is a textual command/telemetry protocol between a device and
// its host. A frame looks like
//
//	{p:<path>:d:<csv-data>}
//
// and carries a path which selects a handler and an optional payload of
// comma separated integers, floats or strings. An empty payload is a
// trigger.
//
// The core is poll driven and never blocks. Bytes arrive in a rx Queue,
// Parser.Poll turns them into Frames on a frame Queue and Dispatcher.Poll
// hands one Frame per call to the matching Handler. Sender writes frames
// byte by byte into a tx Queue and notifies a Notifier after each byte.
//
// Only Queue may be shared between goroutines, and only by a single
// producer and a single consumer. Everything else belongs to one goroutine.
package pathwire
