package shapejson

import (
	"reflect"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/viant/shapejson/shape"
	"github.com/viant/xunsafe"
)

// presence resolves the presence marker of the struct value points to.
func presence(value interface{}) (*shape.Descriptor, unsafe.Pointer, error) {
	rType := reflect.TypeOf(value)
	if rType == nil || rType.Kind() != reflect.Ptr || rType.Elem().Kind() != reflect.Struct {
		return nil, nil, errors.Errorf("expected a struct pointer, got %T", value)
	}
	ptr := xunsafe.AsPointer(value)
	if ptr == nil {
		return nil, nil, errors.Errorf("nil %T", value)
	}
	desc, err := shape.Default.Describe(rType.Elem())
	if err != nil {
		return nil, nil, err
	}
	return desc, ptr, nil
}

// holder returns the marker holder address, nil when the holder pointer is nil.
func holder(marker *shape.Marker, ptr unsafe.Pointer) unsafe.Pointer {
	holderPtr := marker.Holder.Pointer(ptr)
	if marker.HolderType.Kind() == reflect.Ptr {
		return *(*unsafe.Pointer)(holderPtr)
	}
	return holderPtr
}

// IsPresent reports whether the member name, matched by JSON or Go name, was carried by
// the documents read into the struct value points to. A struct without a setMarker
// holder, or with a nil one, reports every member present.
func IsPresent(value interface{}, name string) (bool, error) {
	desc, ptr, err := presence(value)
	if err != nil {
		return false, err
	}
	if desc.Marker == nil {
		return true, nil
	}
	for _, field := range desc.Fields {
		if field.Name != name && field.GoName != name {
			continue
		}
		if field.MarkerFlag == nil {
			return false, errors.Errorf("member %v of %v has no presence flag", name, desc.Type)
		}
		markerPtr := holder(desc.Marker, ptr)
		if markerPtr == nil {
			return true, nil
		}
		return *(*bool)(field.MarkerFlag.Pointer(markerPtr)), nil
	}
	return false, errors.Errorf("unknown member %v of %v", name, desc.Type)
}

// ResetPresence clears every presence flag so a reused value reports only the members
// of the next read.
func ResetPresence(value interface{}) error {
	desc, ptr, err := presence(value)
	if err != nil {
		return err
	}
	if desc.Marker == nil {
		return errors.Errorf("%v has no presence marker", desc.Type)
	}
	markerPtr := holder(desc.Marker, ptr)
	if markerPtr == nil {
		return nil
	}
	for _, field := range desc.Fields {
		if field.MarkerFlag != nil {
			*(*bool)(field.MarkerFlag.Pointer(markerPtr)) = false
		}
	}
	return nil
}
