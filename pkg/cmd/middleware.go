package cmd

// Middleware decorates a command, usually through Wrap.
type Middleware func(Command) Command

// Chain composes middlewares into one. The last one listed ends up outermost
// and sees the invocation first.
func Chain(mws ...Middleware) Middleware {
	return func(c Command) Command {
		for _, mw := range mws {
			if mw != nil {
				c = mw(c)
			}
		}
		return c
	}
}

// Apply is Chain(mws...)(c).
func Apply(c Command, mws ...Middleware) Command {
	return Chain(mws...)(c)
}
