package cmdutil

// ServiceArg returns the service named on the command line, or fallback
// when none was given.
func ServiceArg(args []string, fallback string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return fallback
}
