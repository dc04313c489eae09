// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msq

import "reflect"

// checkPayload panics unless T is pointer-free.
//
// Pop copies a payload out of a node that another goroutine may be
// recycling at the same moment; the copy is discarded if the head CAS fails.
// A torn copy is harmless only when T holds no pointers, strings, slices,
// maps, channels, funcs or interfaces.
func checkPayload[T any]() {
	t := reflect.TypeFor[T]()
	if !pointerFree(t) {
		panic("msq: payload type " + t.String() + " must be pointer-free")
	}
}

func pointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return t.Len() == 0 || pointerFree(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if !pointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
