package transcode

import (
	"fmt"
	"sync"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// EnumTable is the bidirectional number/name table of one enum type.
// It is built once from the enum descriptor and never mutated afterwards.
type EnumTable struct {
	name     protoreflect.FullName
	byNumber map[protoreflect.EnumNumber]string
	byName   map[string]protoreflect.EnumNumber
}

// NewEnumTable builds the table for ed. With allow_alias the first declared
// name wins for the number-to-name direction; every alias resolves to its number.
func NewEnumTable(ed protoreflect.EnumDescriptor) *EnumTable {
	values := ed.Values()
	t := &EnumTable{
		name:     ed.FullName(),
		byNumber: make(map[protoreflect.EnumNumber]string, values.Len()),
		byName:   make(map[string]protoreflect.EnumNumber, values.Len()),
	}
	for i := 0; i < values.Len(); i++ {
		v := values.Get(i)
		if _, ok := t.byNumber[v.Number()]; !ok {
			t.byNumber[v.Number()] = string(v.Name())
		}
		t.byName[string(v.Name())] = v.Number()
	}
	return t
}

// FullName returns the fully-qualified enum name.
func (t *EnumTable) FullName() protoreflect.FullName {
	return t.name
}

// ToName maps a wire number to its symbolic name.
func (t *EnumTable) ToName(n protoreflect.EnumNumber) (string, error) {
	name, ok := t.byNumber[n]
	if !ok {
		return "", fmt.Errorf("%w: %s has no value %d", ErrUnknownEnumValue, t.name, n)
	}
	return name, nil
}

// ToValue maps a symbolic name to its wire number.
func (t *EnumTable) ToValue(name string) (protoreflect.EnumNumber, error) {
	n, ok := t.byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s has no symbol %q", ErrUnknownEnumValue, t.name, name)
	}
	return n, nil
}

// HasNumber reports whether n is declared.
func (t *EnumTable) HasNumber(n protoreflect.EnumNumber) bool {
	_, ok := t.byNumber[n]
	return ok
}

// EnumMapper holds the tables of every enum reachable from a message class,
// keyed by enum full name.
type EnumMapper struct {
	mu     sync.RWMutex
	tables map[protoreflect.FullName]*EnumTable
}

// NewEnumMapper returns an empty mapper.
func NewEnumMapper() *EnumMapper {
	return &EnumMapper{tables: make(map[protoreflect.FullName]*EnumTable)}
}

// Add returns the table for ed, building it on first sight.
func (m *EnumMapper) Add(ed protoreflect.EnumDescriptor) *EnumTable {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tables[ed.FullName()]; ok {
		return t
	}
	t := NewEnumTable(ed)
	m.tables[ed.FullName()] = t
	return t
}

// Table returns the table of the named enum, or nil.
func (m *EnumMapper) Table(enum protoreflect.FullName) *EnumTable {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tables[enum]
}

// ToName maps a number of the named enum to its symbol.
func (m *EnumMapper) ToName(enum protoreflect.FullName, n int32) (string, error) {
	t := m.Table(enum)
	if t == nil {
		return "", fmt.Errorf("%w: enum %s is not loaded", ErrUnknownEnumValue, enum)
	}
	return t.ToName(protoreflect.EnumNumber(n))
}

// ToValue maps a symbol of the named enum to its number.
func (m *EnumMapper) ToValue(enum protoreflect.FullName, name string) (int32, error) {
	t := m.Table(enum)
	if t == nil {
		return 0, fmt.Errorf("%w: enum %s is not loaded", ErrUnknownEnumValue, enum)
	}
	n, err := t.ToValue(name)
	return int32(n), err
}

// Len returns the number of loaded enum tables.
func (m *EnumMapper) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables)
}
