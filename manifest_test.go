package kivis

import (
	"reflect"
	"testing"
)

// TestManifestMembersReflectsRegistrationOrder verifies that Members
// returns each registered table's SCOPE byte in declaration order.
func TestManifestMembersReflectsRegistrationOrder(t *testing.T) {
	a := newUsersTable()
	b := newUsersTable()
	c := newUsersTable()

	m := NewManifest(a, b, c)

	got := m.Members()
	want := []byte{0, 1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Members() = %v, want %v", got, want)
	}

	if got := a.Scope(); got != 0 {
		t.Errorf("first table scope = %d, want 0", got)
	}
	if got := c.Scope(); got != 2 {
		t.Errorf("third table scope = %d, want 2", got)
	}
}
