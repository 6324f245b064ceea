package auth

import "testing"

func TestPermissionAllows(t *testing.T) {
	tests := []struct {
		granted  string
		required string
		want     bool
	}{
		{"orders:read", "orders:read", true},
		{"orders:read", "orders:write", false},
		{"orders:*", "orders:read", true},
		{"orders:*", "orders:status", true},
		{"orders:*", "products:read", false},
		{"*", "anything:at_all", true},
		{"", "orders:read", false},
		{"orders:read", "", false},
		{"orders", "orders:read", false},
	}
	for _, tt := range tests {
		if got := PermissionAllows(tt.granted, tt.required); got != tt.want {
			t.Fatalf("PermissionAllows(%q, %q) = %v, want %v", tt.granted, tt.required, got, tt.want)
		}
	}
}

func TestAnyPermissionAllows(t *testing.T) {
	granted := []string{"cart:*", "orders:read"}
	if !AnyPermissionAllows(granted, "cart:add") {
		t.Fatal("expected cart:* to cover cart:add")
	}
	if AnyPermissionAllows(granted, "orders:write") {
		t.Fatal("orders:write should not be covered")
	}
	if AnyPermissionAllows(nil, "orders:read") {
		t.Fatal("empty grant set covers nothing")
	}
}
