package story

import "strings"

// The six portfolio themes. Every story belongs to exactly one.
const (
	ThemeExecution    = "Execution & Delivery"
	ThemeStrategic    = "Strategic & Advisory"
	ThemeOrgTransform = "Org & Working-Model Transformation"
	ThemeTalent       = "Talent & Enablement"
	ThemeRisk         = "Risk & Responsible Tech"
	ThemeEmergingTech = "Emerging Tech"
)

var themes = []string{
	ThemeExecution, ThemeStrategic, ThemeOrgTransform, ThemeTalent, ThemeRisk, ThemeEmergingTech,
}

var subCategoryThemes = buildThemeLookup(map[string][]string{
	ThemeExecution: {
		"Cloud-Native Architecture", "DevOps & CI/CD", "Platform Engineering",
		"API & Integration Architecture", "Data Engineering & Analytics",
		"Mobile & Web Development", "Infrastructure & Operations",
	},
	ThemeStrategic: {
		"Technology Strategy & Advisory", "Digital Transformation",
		"Product Strategy & Roadmapping", "Business Architecture", "Technology Assessment",
	},
	ThemeOrgTransform: {
		"Agile Transformation", "Operating Model Design", "Change Management",
		"Process Improvement", "Culture & Ways of Working",
	},
	ThemeTalent: {
		"Team Building & Leadership", "Technical Coaching & Mentorship",
		"Capability Building", "Training & Development", "Hiring & Talent Strategy",
	},
	ThemeRisk: {
		"Security & Compliance", "Governance & Risk Management", "Responsible AI & Ethics",
		"Privacy & Data Protection", "Regulatory Compliance",
	},
	ThemeEmergingTech: {
		"AI & Machine Learning", "Generative AI", "Innovation & Experimentation",
		"Research & Prototyping", "Emerging Technology Adoption",
	},
})

func buildThemeLookup(byTheme map[string][]string) map[string]string {
	out := make(map[string]string)
	for theme, subs := range byTheme {
		for _, sc := range subs {
			out[themeKey(sc)] = theme
		}
	}
	return out
}

func themeKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Themes lists the six themes in display order.
func Themes() []string {
	out := make([]string, len(themes))
	copy(out, themes)
	return out
}

// InferTheme maps a sub-category to its theme. An unknown sub-category falls
// back to the record's explicit theme when that names one of the six, then to
// Execution & Delivery.
func InferTheme(subCategory, explicit string) string {
	if t, ok := subCategoryThemes[themeKey(subCategory)]; ok {
		return t
	}
	for _, t := range themes {
		if themeKey(t) == themeKey(explicit) {
			return t
		}
	}
	return ThemeExecution
}
