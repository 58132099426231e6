package mumble

const (
	// DefaultName is the region name used when no override is given.
	DefaultName = "MumbleLink"
	// DisabledName turns the link off.
	DisabledName = "0"
	// NameFlag is the command line argument that overrides the region name.
	NameFlag = "-mumble"
)

// LinkName resolves the region name from command line arguments: the value following
// the first NameFlag, or DefaultName. The result may be DisabledName.
func LinkName(args []string) string {
	for i, arg := range args {
		if arg == NameFlag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return DefaultName
}
