package command

import "github.com/bwmarrin/discordgo"

// Middleware wraps a command with cross-cutting behavior (permission checks,
// logging). The wrapped value still satisfies Command and keeps exposing the
// inner command's slash definition and metadata.
type Middleware func(Command) Command

// WrappedCommand delegates identity to the inner command and routes Run
// through the wrapper chain.
type WrappedCommand struct {
	Command
	Wrap func(ctx interface{}) error
}

func (w *WrappedCommand) Run(ctx interface{}) error {
	if w.Wrap != nil {
		return w.Wrap(ctx)
	}
	return w.Command.Run(ctx)
}

// SlashDefinition surfaces the inner command's definition through the wrapper.
func (w *WrappedCommand) SlashDefinition() *discordgo.ApplicationCommand {
	if sp, ok := w.Command.(SlashProvider); ok {
		return sp.SlashDefinition()
	}
	return nil
}

// UserPermissions surfaces the inner command's permission requirements.
func (w *WrappedCommand) UserPermissions() []int64 {
	if meta, ok := w.Command.(DiscordMeta); ok {
		return meta.UserPermissions()
	}
	return nil
}

// ApplyMiddlewares wraps cmd with each middleware in order; the last one in
// the list runs outermost.
func ApplyMiddlewares(cmd Command, mws ...Middleware) Command {
	for _, mw := range mws {
		cmd = mw(cmd)
	}
	return cmd
}
