package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/sharevault/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
