// Package testutil provides fixtures shared by the package tests: synthetic
// QR frames, a controllable frame source, stub decoders and a manual clock.
package testutil
