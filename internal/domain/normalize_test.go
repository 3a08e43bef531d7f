package domain

import "testing"

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		typ  EntityType
		want string
	}{
		{"MY_VARIABLE", Variable, "MY_VARIABLE"},
		{"  MY_VARIABLE  ", Variable, "MY_VARIABLE"},

		{"my_function", Function, "my_function"},
		{"my_function()", Function, "my_function"},
		{"my_function( )", Function, "my_function"},
		{"my_function ()", Function, "my_function"},
		// A non-empty list is not a decoration.
		{"my_function(<arg>)", Function, "my_function(<arg>)"},
		// Bare parens have no name to keep.
		{"()", Function, "()"},

		{"MyModule", Module, "MyModule"},
		{"MyModule.cmake", Module, "MyModule"},
		{"MyModule.CMAKE", Module, "MyModule"},
		{"MyModule.Cmake", Module, "MyModule"},
		// The extension alone is a name, not a decoration.
		{".cmake", Module, ".cmake"},
		// Only a suffix counts.
		{"cmake", Module, "cmake"},

		{"my_target", Target, "my_target"},
		{" my_target\t", Target, "my_target"},
	}

	for _, tt := range tests {
		if got := NormalizeName(tt.raw, tt.typ); got != tt.want {
			t.Errorf("NormalizeName(%q, %s) = %q, want %q", tt.raw, tt.typ, got, tt.want)
		}
	}
}

func TestDisplayName_Decorations(t *testing.T) {
	t.Parallel()

	all := DisplayOptions{FunctionParens: true, ModuleExtension: true}
	none := DisplayOptions{}

	tests := []struct {
		key  string
		typ  EntityType
		opts DisplayOptions
		want string
	}{
		{"my_func", Function, all, "my_func()"},
		{"my_func", Function, none, "my_func"},
		{"MyModule", Module, all, "MyModule.cmake"},
		{"MyModule", Module, none, "MyModule"},
		{"MY_VAR", Variable, all, "MY_VAR"},
		{"my_target", Target, all, "my_target"},
	}

	for _, tt := range tests {
		if got := DisplayName(tt.key, tt.typ, tt.opts); got != tt.want {
			t.Errorf("DisplayName(%q, %s, %+v) = %q, want %q", tt.key, tt.typ, tt.opts, got, tt.want)
		}
	}
}

func TestNormalizeThenDisplay_Idempotent(t *testing.T) {
	t.Parallel()

	opts := DisplayOptions{FunctionParens: true, ModuleExtension: true}

	// Decorated and bare spellings of the same name land on the same
	// display form.
	for _, raw := range []string{"my_func", "my_func()"} {
		got := DisplayName(NormalizeName(raw, Function), Function, opts)
		if got != "my_func()" {
			t.Errorf("display of %q = %q, want %q", raw, got, "my_func()")
		}
	}
	for _, raw := range []string{"FindFoo", "FindFoo.cmake"} {
		got := DisplayName(NormalizeName(raw, Module), Module, opts)
		if got != "FindFoo.cmake" {
			t.Errorf("display of %q = %q, want %q", raw, got, "FindFoo.cmake")
		}
	}
}

func TestMakeAnchor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ  EntityType
		key  string
		want string
	}{
		{Variable, "MY_VAR", "cmake-var-my_var"},
		{Function, "do_thing", "cmake-func-do_thing"},
		{Module, "FindFoo", "cmake-mod-findfoo"},
		{Target, "my::lib", "cmake-tgt-my-lib"},
	}
	for _, tt := range tests {
		if got := MakeAnchor(tt.typ, tt.key); got != tt.want {
			t.Errorf("MakeAnchor(%s, %q) = %q, want %q", tt.typ, tt.key, got, tt.want)
		}
	}
}
