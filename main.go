package main

import (
	"context"
	"os"

	"multiput/cmd"
)

func main() {
	os.Exit(cmd.Execute(context.Background()))
}
