// Package protocol implements the lumiwave streaming wire format.
//
// A session is server initiated:
//
//	server -> client : 1 byte   Magic
//	client -> server : 1 byte   Mode
//	client -> server : init frame  (OnlyColor: f32 BE base intensity, OnlyIntensity: RGB base colour)
//	client -> server : stream frames until EOF (OnlyColor: RGB, OnlyIntensity: f32 BE)
//
// Frames carry no length or type tag; their size follows from the negotiated Mode.
package protocol
