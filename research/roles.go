package research

import "fmt"

// Role is one of the three fixed pipeline stages
type Role int

const (
	Searcher Role = iota
	Analyst
	Writer
)

func (r Role) String() string {
	switch r {
	case Searcher:
		return "searcher"
	case Analyst:
		return "analyst"
	case Writer:
		return "writer"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// RoleSpec is the persona and task of a pipeline stage
type RoleSpec struct {
	Role           Role   `yaml:"-"`
	Title          string `yaml:"title"`
	Goal           string `yaml:"goal"`
	Backstory      string `yaml:"backstory"`
	Task           string `yaml:"task"`
	ExpectedOutput string `yaml:"expected_output"`
}

// Roles holds the specs of the pipeline stages in execution order
type Roles [3]RoleSpec

// DefaultRoles returns the searcher, analyst and writer personas
func DefaultRoles() Roles {
	return Roles{
		{
			Role:           Searcher,
			Title:          "Web Research Specialist",
			Goal:           "Find comprehensive and relevant information from web sources",
			Backstory:      "You are an expert web researcher with skills in finding accurate, up-to-date information from reliable sources.",
			Task:           "Search for comprehensive information about the query. Focus on finding current, accurate, and relevant sources.",
			ExpectedOutput: "Detailed search results with multiple sources and relevant information.",
		},
		{
			Role:           Analyst,
			Title:          "Research Analyst",
			Goal:           "Analyze search results and extract key insights and patterns",
			Backstory:      "You are a skilled analyst who can identify important information, trends, and insights from multiple sources.",
			Task:           "Analyze the search results and identify key points, trends, and important insights.",
			ExpectedOutput: "Structured analysis highlighting key findings and insights.",
		},
		{
			Role:           Writer,
			Title:          "Technical Writer",
			Goal:           "Create well-structured, comprehensive research reports",
			Backstory:      "You are an expert technical writer who creates clear, organized, and informative reports with proper citations.",
			Task:           "Create a comprehensive research report based on the analysis, including proper structure and citations.",
			ExpectedOutput: "A well-formatted markdown research report with clear sections, key findings, and proper citations.",
		},
	}
}

// Spec returns the spec of a role
func (r Roles) Spec(role Role) RoleSpec {
	return r[role]
}

func (s RoleSpec) background() []string {
	return []string{
		fmt.Sprintf("- You are the %s.", s.Title),
		"- " + s.Backstory,
		"- Your goal: " + s.Goal,
	}
}
