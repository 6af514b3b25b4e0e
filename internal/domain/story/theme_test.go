package story

import "testing"

func TestInferTheme(t *testing.T) {
	tests := []struct {
		name        string
		subCategory string
		explicit    string
		want        string
	}{
		{"execution", "DevOps & CI/CD", "", ThemeExecution},
		{"strategic", "Digital Transformation", "", ThemeStrategic},
		{"org transformation", "Agile Transformation", "", ThemeOrgTransform},
		{"talent", "Capability Building", "", ThemeTalent},
		{"risk", "Regulatory Compliance", "", ThemeRisk},
		{"emerging", "Generative AI", "", ThemeEmergingTech},
		{"case and spaces ignored", "  generative ai ", "", ThemeEmergingTech},
		{"sub-category wins over explicit", "Change Management", ThemeRisk, ThemeOrgTransform},
		{"explicit theme used for unknown sub-category", "Ways of Working", "org & working-model transformation", ThemeOrgTransform},
		{"unknown explicit theme ignored", "Payments", "Platform Engineering", ThemeExecution},
		{"empty defaults to execution", "", "", ThemeExecution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferTheme(tt.subCategory, tt.explicit); got != tt.want {
				t.Errorf("InferTheme(%q, %q) = %q, want %q", tt.subCategory, tt.explicit, got, tt.want)
			}
		})
	}
}

func TestStory_Theme(t *testing.T) {
	f := validFields()
	f.SubCategory = "Responsible AI & Ethics"
	s, err := New(f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Theme() != ThemeRisk {
		t.Errorf("Theme() = %q, want %q", s.Theme(), ThemeRisk)
	}
	if s.Fields().Theme != "Platform Engineering" {
		t.Errorf("raw theme field must be preserved, got %q", s.Fields().Theme)
	}
}

func TestThemes_ReturnsCopy(t *testing.T) {
	a := Themes()
	if len(a) != 6 {
		t.Fatalf("expected 6 themes, got %d", len(a))
	}
	a[0] = "mutated"
	if Themes()[0] != ThemeExecution {
		t.Error("Themes must return a copy")
	}
}
