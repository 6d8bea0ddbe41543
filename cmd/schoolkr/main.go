package main

import (
	"schoolkr/cmd/schoolkr/commands"
	"schoolkr/internal/components/serviceutil"
)

func main() {
	ctx, stop := serviceutil.SignalContext()
	defer stop()

	commands.ExecuteContext(ctx)
}
