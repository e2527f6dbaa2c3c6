package layout

import (
	"errors"
	"testing"
)

func TestValidateSimpleGrid(t *testing.T) {
	def, err := ParseAndValidate(`{"rows":[{"height":50,"columns":[{"width":50},{"width":50}]},{"height":50,"columns":[{"width":100}]}]}`)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if got := def.SectionCount(); got != 3 {
		t.Errorf("SectionCount = %d, want 3", got)
	}
	if got := def.RowCount(); got != 2 {
		t.Errorf("RowCount = %d, want 2", got)
	}
}

func TestValidateHeightSumMismatch(t *testing.T) {
	// Heights sum to 110.
	_, err := ParseAndValidate(`{"rows":[{"height":60,"columns":[{"width":50},{"width":50}]},{"height":50,"columns":[{"width":100}]}]}`)
	if err == nil {
		t.Fatal("expected validation failure for heights summing to 110")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
}

func TestValidateTolerance(t *testing.T) {
	tests := []struct {
		name string
		json string
		ok   bool
	}{
		{"within tolerance", `{"rows":[{"height":99.6,"columns":[{"width":100}]}]}`, true},
		{"outside tolerance", `{"rows":[{"height":99.4,"columns":[{"width":100}]}]}`, false},
		{"width within tolerance", `{"rows":[{"height":100,"columns":[{"width":49.8},{"width":49.9}]}]}`, true},
		{"width outside tolerance", `{"rows":[{"height":100,"columns":[{"width":49},{"width":49}]}]}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAndValidate(tt.json)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected validation failure")
			}
		})
	}
}

func TestValidateStructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"empty rows", `{"rows":[]}`},
		{"missing rows", `{}`},
		{"row without columns", `{"rows":[{"height":100,"columns":[]}]}`},
		{"zero height", `{"rows":[{"height":0,"columns":[{"width":100}]}]}`},
		{"negative width", `{"rows":[{"height":100,"columns":[{"width":-5},{"width":105}]}]}`},
		{"malformed json", `{"rows":[`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseAndValidate(tt.json); err == nil {
				t.Error("expected validation failure")
			}
		})
	}
}

func TestValidateNestedFailurePropagates(t *testing.T) {
	// The nested column splits cleanly into 100/100, but the outer row
	// heights sum to 90: failure anywhere invalidates the whole tree.
	bad := `{"rows":[
		{"height":40,"columns":[{"width":100,"rows":[{"height":100,"columns":[{"width":100}]}]}]},
		{"height":50,"columns":[{"width":100}]}
	]}`
	if _, err := ParseAndValidate(bad); err == nil {
		t.Fatal("expected outer height failure despite valid nested grid")
	}

	// Inverse case: outer sums fine, nested widths are broken.
	bad = `{"rows":[{"height":100,"columns":[{"width":100,"rows":[{"height":100,"columns":[{"width":60},{"width":60}]}]}]}]}`
	if _, err := ParseAndValidate(bad); err == nil {
		t.Fatal("expected nested width failure to invalidate the tree")
	}
}

func TestValidateMaxDepth(t *testing.T) {
	// Four levels of nesting, one past the cap.
	deep := `{"rows":[{"height":100,"columns":[{"width":100,"rows":[
		{"height":100,"columns":[{"width":100,"rows":[
			{"height":100,"columns":[{"width":100,"rows":[
				{"height":100,"columns":[{"width":100}]}
			]}]}
		]}]}
	]}]}]}`
	if _, err := ParseAndValidate(deep); err == nil {
		t.Fatal("expected depth cap violation")
	}

	// Exactly three levels is allowed.
	ok := `{"rows":[{"height":100,"columns":[{"width":100,"rows":[
		{"height":100,"columns":[{"width":100,"rows":[
			{"height":100,"columns":[{"width":100}]}
		]}]}
	]}]}]}`
	if _, err := ParseAndValidate(ok); err != nil {
		t.Fatalf("three levels should validate: %v", err)
	}
}

func TestValidationErrorPath(t *testing.T) {
	_, err := ParseAndValidate(`{"rows":[{"height":100,"columns":[{"width":100},{"width":-1}]}]}`)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
	if verr.Path != "rows[0].columns[1]" {
		t.Errorf("Path = %q, want %q", verr.Path, "rows[0].columns[1]")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	src := `{"rows":[{"height":100,"columns":[{"width":50,"rows":[{"height":100,"columns":[{"width":100}]}]},{"width":50}]}]}`
	def, err := ParseAndValidate(src)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}

	encoded, err := def.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	again, err := ParseAndValidate(encoded)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if got, want := again.SectionCount(), def.SectionCount(); got != want {
		t.Errorf("SectionCount after round trip = %d, want %d", got, want)
	}
}
