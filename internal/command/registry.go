package command

var registry = map[string]Command{}

// Register adds a command to the global registry, replacing any previous
// command of the same name.
func Register(cmd Command) {
	registry[cmd.Name()] = cmd
}

// Get returns the registered command with the given name.
func Get(name string) (Command, bool) {
	cmd, ok := registry[name]
	return cmd, ok
}

// All returns every registered command in unspecified order.
func All() []Command {
	list := make([]Command, 0, len(registry))
	for _, cmd := range registry {
		list = append(list, cmd)
	}
	return list
}
