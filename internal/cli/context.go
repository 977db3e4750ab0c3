package cli

import (
	"io"
	"os"

	"github.com/terraincognita07/comoestou/internal/config"
)

// Context is passed to every command's Run method.
type Context struct {
	Config config.Config
	Stdout io.Writer
	Stderr io.Writer
}

func (ctx *Context) stdout() io.Writer {
	if ctx.Stdout == nil {
		return os.Stdout
	}
	return ctx.Stdout
}

func (ctx *Context) stderr() io.Writer {
	if ctx.Stderr == nil {
		return os.Stderr
	}
	return ctx.Stderr
}
