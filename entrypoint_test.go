package vatrace

import (
	"errors"
	"reflect"
	"testing"
)

func TestEntryPoints_Table(t *testing.T) {
	eps := EntryPoints()
	if len(eps) != int(entryPointCount) {
		t.Fatalf("len(EntryPoints()) = %d, want %d", len(eps), entryPointCount)
	}

	seen := make(map[string]bool)
	for i, ep := range eps {
		if err := ep.Validate(); err != nil {
			t.Errorf("EntryPoints()[%d].Validate() = %v", i, err)
		}
		if seen[ep.Name] {
			t.Errorf("duplicate entry point %s", ep.Name)
		}
		seen[ep.Name] = true
		if EntryPointID(i).Descriptor().Name != ep.Name {
			t.Errorf("EntryPointID(%d).Descriptor() = %s, want %s", i, EntryPointID(i).Descriptor().Name, ep.Name)
		}
	}

	// Mutating the copy must not affect the declared table.
	eps[0].Name = "changed"
	if EntryCreateConfig.String() != "vaCreateConfig" {
		t.Errorf("EntryPoints() returned the backing table")
	}
}

func TestEntryPoints_Versions(t *testing.T) {
	for _, ep := range EntryPoints() {
		want := ""
		if ep.Name == "vaCreateSurfaces" {
			want = "VA_API_0.33.0"
		}
		if ep.Version != want {
			t.Errorf("%s version = %q, want %q", ep.Name, ep.Version, want)
		}
	}
}

func TestEntryPointID_Unknown(t *testing.T) {
	id := EntryPointID(200)
	if id.String() != "unknown" {
		t.Errorf("String() = %q, want unknown", id.String())
	}
	if id.Descriptor().Name != "" {
		t.Errorf("Descriptor() = %v, want zero", id.Descriptor())
	}
}

func TestEntryPoint_Validate(t *testing.T) {
	type noStatus func(Display) int32
	type twoResults func(Display) (Status, error)
	type floatArg func(float64) Status
	type variadic func(...int32) Status
	type goString func(string) Status

	tests := []struct {
		name    string
		ep      EntryPoint
		wantErr error
	}{
		{"valid", EntryPoint{"vaEndPicture", "", sigOf[EndPictureFunc]()}, nil},
		{"empty name", EntryPoint{"", "", sigOf[EndPictureFunc]()}, ErrEmptyName},
		{"nil signature", EntryPoint{"x", "", nil}, errNotFunc},
		{"not a func", EntryPoint{"x", "", reflect.TypeOf(0)}, errNotFunc},
		{"variadic", EntryPoint{"x", "", sigOf[variadic]()}, errVariadicEntry},
		{"wrong return", EntryPoint{"x", "", sigOf[noStatus]()}, errStatusReturn},
		{"two results", EntryPoint{"x", "", sigOf[twoResults]()}, errStatusReturn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ep.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}

	for _, ep := range []EntryPoint{
		{"x", "", sigOf[floatArg]()},
		{"x", "", sigOf[goString]()},
	} {
		if err := ep.Validate(); err == nil {
			t.Errorf("Validate(%v) = nil, want unsupported kind error", ep.Signature)
		}
	}
}

func TestEntryPoint_String(t *testing.T) {
	if got := EntryCreateSurfaces.Descriptor().String(); got != "vaCreateSurfaces@VA_API_0.33.0" {
		t.Errorf("String() = %q", got)
	}
	if got := EntryEndPicture.Descriptor().String(); got != "vaEndPicture" {
		t.Errorf("String() = %q", got)
	}
}

func TestEntryPoint_Prototype(t *testing.T) {
	tests := []struct {
		id   EntryPointID
		want string
	}{
		{EntryDestroyConfig, "vaDestroyConfig(Display, ConfigID) Status"},
		{EntryMapBuffer, "vaMapBuffer(Display, BufferID, *unsafe.Pointer) Status"},
		{EntryRenderPicture, "vaRenderPicture(Display, ContextID, *BufferID, int32) Status"},
	}
	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			if got := tt.id.Descriptor().Prototype(); got != tt.want {
				t.Errorf("Prototype() = %q, want %q", got, tt.want)
			}
		})
	}
}
