package cli

import "fmt"

type MigrateCmd struct{}

// Run opens the database, which applies pending migrations.
func (cmd *MigrateCmd) Run(ctx *Context) error {
	runtime, err := OpenRuntime(ctx.Config, RuntimeOptions{Offline: true})
	if err != nil {
		return err
	}
	defer runtime.Close()

	fmt.Fprintf(ctx.stdout(), "Database is up to date (%s)\n", runtime.DB.Dialector.Name())
	return nil
}
