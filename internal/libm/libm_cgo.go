//go:build linux && cgo

package libm

// #cgo LDFLAGS: -lm
// #include <math.h>
import "C"

// Log2f calls log2f.
func Log2f(x float32) float32 { return float32(C.log2f(C.float(x))) }

// Powf calls powf.
func Powf(x, y float32) float32 { return float32(C.powf(C.float(x), C.float(y))) }
