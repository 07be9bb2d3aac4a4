package threadcore

import (
	"sync/atomic"
	"unsafe"
)

// CompareAndSwap reads *dest and, if it equals expected, atomically stores
// new. It returns the value observed at *dest before the store, so callers
// retry while the returned value differs from what they expected:
//
//	for {
//		old := atomic.LoadUint32(&x)
//		if CompareAndSwap(&x, old, old+1) == old {
//			break
//		}
//	}
func CompareAndSwap[T ~int32 | ~int64 | ~uint32 | ~uint64 | ~uintptr](dest *T, expected, new T) T {
	for {
		old := load(dest)
		if old != expected {
			return old
		}
		if cas(dest, old, new) {
			return old
		}
	}
}

// CompareAndSwapPointer is CompareAndSwap for unsafe pointers.
func CompareAndSwapPointer(dest *unsafe.Pointer, expected, new unsafe.Pointer) unsafe.Pointer {
	for {
		old := atomic.LoadPointer(dest)
		if old != expected {
			return old
		}
		if atomic.CompareAndSwapPointer(dest, old, new) {
			return old
		}
	}
}

//go:nosplit
func load[T ~int32 | ~int64 | ~uint32 | ~uint64 | ~uintptr](addr *T) T {
	if unsafe.Sizeof(T(0)) == 4 {
		return T(atomic.LoadUint32((*uint32)(unsafe.Pointer(addr))))
	}
	return T(atomic.LoadUint64((*uint64)(unsafe.Pointer(addr))))
}

//go:nosplit
func cas[T ~int32 | ~int64 | ~uint32 | ~uint64 | ~uintptr](addr *T, old, new T) bool {
	if unsafe.Sizeof(T(0)) == 4 {
		return atomic.CompareAndSwapUint32((*uint32)(unsafe.Pointer(addr)), uint32(old), uint32(new))
	}
	return atomic.CompareAndSwapUint64((*uint64)(unsafe.Pointer(addr)), uint64(old), uint64(new))
}
