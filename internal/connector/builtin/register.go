package builtin

import "github.com/weftrun/weft/internal/connector"

// Register wires the illustrative builtin connectors into a Registry,
// the same way a caller embedding the core registers its own connector
// types before constructing a Runner.
func Register(reg *connector.Registry) {
	reg.Register("exec", NewExec)
	reg.Register("gitrepo", NewGitRepo)
	reg.Register("env", NewEnv)
}
