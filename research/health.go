package research

import (
	"context"
	"fmt"
	"strings"
)

// HealthProbeQuery is searched by HealthCheck
const HealthProbeQuery = "artificial intelligence"

// HealthCheck runs a probe search and describes the LLM mode in use
func (o *Orchestrator) HealthCheck(ctx context.Context) (string, error) {
	searchCtx, cancel := context.WithTimeout(ctx, o.cfg.SearchTimeout)
	defer cancel()
	if _, err := o.cfg.Searcher.Search(searchCtx, HealthProbeQuery, 1); err != nil {
		o.log.Warn("research: health check failed", "error", err)
		return "Research system has issues with search functionality: " + err.Error(), err
	}
	return fmt.Sprintf("Research system is healthy and ready! (%s)", o.mode()), nil
}

func (o *Orchestrator) mode() string {
	if d := o.descriptor(StageConfiguredLLM); d != nil {
		return fmt.Sprintf("%s %s configured", d.Provider, d.Model)
	}
	if d := o.cfg.Local; d != nil {
		return fmt.Sprintf("local %s model %s", d.Provider, d.Model)
	}
	return "Using fallback mode"
}

// Capabilities describes the research system in markdown
func (o *Orchestrator) Capabilities() string {
	var b strings.Builder
	b.WriteString("# AI Research Assistant Capabilities\n\n")
	b.WriteString("## Web Search\n")
	fmt.Fprintf(&b, "- %s search backend\n", o.cfg.SearchBackend)
	fmt.Fprintf(&b, "- Up to %d results per query\n", o.cfg.MaxResults)
	fmt.Fprintf(&b, "- Timeout protection (%s per search, %s per stage)\n\n", o.cfg.SearchTimeout, o.cfg.StageTimeout)
	b.WriteString("## AI Agents\n")
	for _, spec := range o.cfg.Roles {
		fmt.Fprintf(&b, "- **%s:** %s\n", spec.Title, spec.Goal)
	}
	b.WriteString("\n## Configuration\n")
	if d := o.descriptor(StageConfiguredLLM); d != nil {
		fmt.Fprintf(&b, "- Configured LLM: %s (%s)\n", d.Provider, d.Model)
	} else {
		b.WriteString("- Configured LLM: not configured\n")
	}
	if d := o.cfg.Local; d != nil {
		fmt.Fprintf(&b, "- Local LLM: %s at %s\n", d.Model, d.BaseURL)
	} else {
		b.WriteString("- Local LLM: disabled\n")
	}
	b.WriteString("- Fallback search: always available\n\n")
	b.WriteString("## Example queries\n")
	for _, q := range []string{
		"What is quantum computing and its applications?",
		"Latest developments in artificial intelligence",
		"Climate change impact on global agriculture",
	} {
		fmt.Fprintf(&b, "- %q\n", q)
	}
	return b.String()
}
