//go:build linux && cgo

package memmod

/*
#include <stdint.h>

typedef uintptr_t (*dnload_fn0)(void);
typedef uintptr_t (*dnload_fn2)(uintptr_t, uintptr_t);

static uintptr_t dnload_call0(uintptr_t fn) {
	return ((dnload_fn0)fn)();
}

static uintptr_t dnload_call2(uintptr_t fn, uintptr_t a0, uintptr_t a1) {
	return ((dnload_fn2)fn)(a0, a1);
}
*/
import "C"

const nativeCalls = true

func cCall0(fn uintptr) uintptr {
	return uintptr(C.dnload_call0(C.uintptr_t(fn)))
}

func cCall2(fn, a0, a1 uintptr) uintptr {
	return uintptr(C.dnload_call2(C.uintptr_t(fn), C.uintptr_t(a0), C.uintptr_t(a1)))
}
