//go:build linux && !cgo

package memmod

// Without cgo there is no C runtime in the process and no way to enter
// native code. Callers check nativeCalls first.
const nativeCalls = false

func cCall0(fn uintptr) uintptr {
	_ = fn
	panic("memmod: native call without cgo")
}

func cCall2(fn, a0, a1 uintptr) uintptr {
	_, _, _ = fn, a0, a1
	panic("memmod: native call without cgo")
}
