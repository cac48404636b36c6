package main

import (
	"os"

	"github.com/gatehouse-project/gatehouse/internal/cmd"
)

func main() {
	os.Exit(cmd.Run(os.Args[1:]))
}
