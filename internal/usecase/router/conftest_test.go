package router

import (
	"testing"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/story"
)

func mustStory(t *testing.T, f story.Fields) story.Story {
	t.Helper()
	if len(f.Situation) == 0 {
		f.Situation = []string{"context"}
	}
	s, err := story.New(f)
	if err != nil {
		t.Fatalf("story.New: %v", err)
	}
	return s
}

func testStories(t *testing.T) []story.Story {
	t.Helper()
	return []story.Story{
		mustStory(t, story.Fields{
			Title: "Modernized Payments Platform", Client: "JP Morgan Chase", Employer: "Accenture",
			Division: "Cloud Innovation Center", Role: "Engineering Lead", Industry: "Financial Services",
			Category: "Cloud-Native Architecture", SubCategory: "Platform Modernization",
			Tags: []string{"payments", "microservices"},
		}),
		mustStory(t, story.Fields{
			Title: "Agile Transformation", Client: "Nationwide", Employer: "Accenture",
			Division: "Technology", Role: "Transformation Lead", Industry: "Insurance",
			Category: "Agile Transformation", SubCategory: "Ways of Working", Tags: []string{"agile"},
		}),
		mustStory(t, story.Fields{
			Title: "Innovation Center Launch", Client: "Multiple clients", Employer: "Accenture",
			Role: "Director", Category: "Talent & Enablement", Tags: []string{"leadership"},
		}),
	}
}
