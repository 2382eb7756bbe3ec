package application

import (
	"fmt"
	"reflect"

	"leetbot/domain/events"
)

// AssertEventType asserts an event to a specific type with a descriptive error
func AssertEventType[T events.Event](event interface{}, expectedTypeName string) (T, error) {
	var zero T

	if e, ok := event.(T); ok {
		return e, nil
	}

	// Events are published by value; accept a pointer to the expected type too
	if reflect.ValueOf(event).Kind() == reflect.Ptr && !reflect.ValueOf(event).IsNil() {
		if e, ok := reflect.ValueOf(event).Elem().Interface().(T); ok {
			return e, nil
		}
	}

	errMsg := fmt.Sprintf("event type assertion failed: expected %s, got %T", expectedTypeName, event)
	if e, ok := event.(events.Event); ok && !isNilPointer(event) {
		errMsg += fmt.Sprintf(" (event.Type()=%s)", e.Type())
	}
	if isNilPointer(event) {
		errMsg += " (event is nil)"
	}

	return zero, fmt.Errorf("%s", errMsg)
}

func isNilPointer(v interface{}) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}
