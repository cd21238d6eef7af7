package store

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/tfkr-ae/mirsal/domain"
)

// PropertySetter is implemented by stored values that apply property
// updates themselves. prop is the remaining dotted path.
type PropertySetter interface {
	SetProperty(prop string, value any) error
}

// inner is satisfied by option.Option.
type inner interface {
	Inner() (any, bool)
}

// Snapshot is a shallow copy of the data table taken at one instant.
type Snapshot map[domain.Key]any

// Get returns the value stored for key in the snapshot.
func (s Snapshot) Get(key domain.Key) (any, bool) {
	v, ok := s[key]
	return v, ok
}

// Table maps resource keys to their last committed value. A missing key
// means no data was committed, or it was cleared.
type Table struct {
	mu   sync.RWMutex
	data map[domain.Key]any
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{data: make(map[domain.Key]any)}
}

// Get returns the value stored for key.
func (t *Table) Get(key domain.Key) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	v, ok := t.data[key]
	return v, ok
}

// Has reports whether a value is stored for key.
func (t *Table) Has(key domain.Key) bool {
	_, ok := t.Get(key)
	return ok
}

// Set stores value for key, replacing any previous value.
func (t *Table) Set(key domain.Key, value any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data[key] = value
}

// SetProperty updates one property of the value stored for key in place.
// prop is a dotted path such as "publishedAt" or "2.exists"; segments are
// struct fields (json name or Go name), map keys or slice indexes. Options
// are unwrapped on the way down.
func (t *Table) SetProperty(key domain.Key, prop string, value any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok := t.data[key]
	if !ok {
		return fmt.Errorf("setting %s.%s : %w", key, prop, ErrNoData)
	}
	if prop == "" {
		return fmt.Errorf("setting %s : %w", key, ErrNoSuchProperty)
	}
	if err := assign(reflect.ValueOf(current), strings.Split(prop, "."), value); err != nil {
		return fmt.Errorf("setting %s.%s : %w", key, prop, err)
	}
	return nil
}

// Clear removes the value stored for key.
func (t *Table) Clear(key domain.Key) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.data, key)
}

// ClearAll removes every value.
func (t *Table) ClearAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	clear(t.data)
}

// Snapshot copies the current key to value mapping.
func (t *Table) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := make(Snapshot, len(t.data))
	for k, v := range t.data {
		snap[k] = v
	}
	return snap
}

func assign(node reflect.Value, path []string, value any) error {
	for {
		if !node.IsValid() {
			return ErrNoSuchProperty
		}
		if setter, ok := asSetter(node); ok {
			return setter.SetProperty(strings.Join(path, "."), value)
		}
		if node.CanInterface() {
			if o, ok := node.Interface().(inner); ok && node.Kind() != reflect.Pointer {
				v, present := o.Inner()
				if !present {
					return ErrEmptyOption
				}
				node = reflect.ValueOf(v)
				continue
			}
		}
		if node.Kind() == reflect.Interface || node.Kind() == reflect.Pointer {
			if node.IsNil() {
				return ErrNoSuchProperty
			}
			node = node.Elem()
			continue
		}
		break
	}

	name, rest := path[0], path[1:]
	switch node.Kind() {
	case reflect.Struct:
		field, ok := fieldByName(node, name)
		if !ok {
			return ErrNoSuchProperty
		}
		if len(rest) == 0 {
			return setValue(field, value)
		}
		return assign(field, rest, value)

	case reflect.Map:
		if node.Type().Key().Kind() != reflect.String {
			return ErrNoSuchProperty
		}
		mk := reflect.ValueOf(name).Convert(node.Type().Key())
		if len(rest) == 0 {
			if node.IsNil() {
				return ErrNotSettable
			}
			v, err := convert(value, node.Type().Elem())
			if err != nil {
				return err
			}
			node.SetMapIndex(mk, v)
			return nil
		}
		return assign(node.MapIndex(mk), rest, value)

	case reflect.Slice, reflect.Array:
		idx, err := strconv.Atoi(name)
		if err != nil || idx < 0 || idx >= node.Len() {
			return ErrNoSuchProperty
		}
		if len(rest) == 0 {
			return setValue(node.Index(idx), value)
		}
		return assign(node.Index(idx), rest, value)
	}
	return ErrNoSuchProperty
}

func asSetter(node reflect.Value) (PropertySetter, bool) {
	if node.Kind() == reflect.Pointer && node.IsNil() {
		return nil, false
	}
	if node.CanInterface() {
		if s, ok := node.Interface().(PropertySetter); ok {
			return s, true
		}
	}
	if node.CanAddr() && node.Addr().CanInterface() {
		if s, ok := node.Addr().Interface().(PropertySetter); ok {
			return s, true
		}
	}
	return nil, false
}

// fieldByName matches exported fields by json name first, then by Go name,
// searching embedded structs after direct fields.
func fieldByName(node reflect.Value, name string) (reflect.Value, bool) {
	typ := node.Type()
	var embedded []int
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			embedded = append(embedded, i)
			continue
		}
		tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if tag == name || strings.EqualFold(f.Name, name) {
			return node.Field(i), true
		}
	}
	for _, i := range embedded {
		if v, ok := fieldByName(node.Field(i), name); ok {
			return v, true
		}
	}
	return reflect.Value{}, false
}

func setValue(target reflect.Value, value any) error {
	if !target.CanSet() {
		return ErrNotSettable
	}
	v, err := convert(value, target.Type())
	if err != nil {
		return err
	}
	target.Set(v)
	return nil
}

func convert(value any, typ reflect.Type) (reflect.Value, error) {
	if value == nil {
		switch typ.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
			return reflect.Zero(typ), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: nil for %s", ErrNotSettable, typ)
	}
	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(typ) {
		return v, nil
	}
	if isNumeric(v.Kind()) && isNumeric(typ.Kind()) {
		return v.Convert(typ), nil
	}
	// *T into a T field and T into a *T field
	if v.Kind() == reflect.Pointer && !v.IsNil() && v.Elem().Type().AssignableTo(typ) {
		return v.Elem(), nil
	}
	if typ.Kind() == reflect.Pointer && v.Type().AssignableTo(typ.Elem()) {
		ptr := reflect.New(typ.Elem())
		ptr.Elem().Set(v)
		return ptr, nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %s into %s", ErrNotSettable, v.Type(), typ)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
