// Package tools wires all biochemistry mock tools into an MCP server.
//
// Each tool lives in its own subpackage and produces deterministic,
// hash-derived results: identical inputs always yield identical outputs,
// which keeps the pipeline reproducible without external services.
package tools

import (
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/bioroute/internal/tools/binding"
	"github.com/MrWong99/bioroute/internal/tools/molprops"
	"github.com/MrWong99/bioroute/internal/tools/pubchem"
	"github.com/MrWong99/bioroute/internal/tools/toxicity"
)

// RegisterAll registers every tool with the given MCP server.
func RegisterAll(s *mcpsdk.Server) {
	molprops.Register(s)
	binding.Register(s)
	toxicity.Register(s)
	pubchem.Register(s)
}
