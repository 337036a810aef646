// Package research answers free-text research questions.
//
// An Orchestrator validates the query and then tries, in order, the agent
// pipeline on the configured LLM, the agent pipeline on the local LLM, and
// finally a plain web search rendered by Format. The first stage producing a
// non-empty report wins.
package research
