package widget

import "sync"

// Form is a host form the widget writes its value into.
// A nil value clears the field.
type Form interface {
	Set(field string, value any)
}

// FormGroup is a map-backed Form.
type FormGroup struct {
	mu     sync.RWMutex
	values map[string]any
}

func NewFormGroup() *FormGroup {
	return &FormGroup{values: make(map[string]any)}
}

func (f *FormGroup) Set(field string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[field] = value
}

func (f *FormGroup) Get(field string) any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.values[field]
}

// String returns the field as a string, "" when unset or not a string.
func (f *FormGroup) String(field string) string {
	s, _ := f.Get(field).(string)
	return s
}
