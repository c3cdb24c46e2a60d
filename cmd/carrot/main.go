package main

import (
	"os"

	"github.com/julianstephens/carrot/internal/cli"
	"github.com/julianstephens/carrot/internal/errors"
)

func main() {
	err := cli.Execute(os.Args[1:], os.Stdout, os.Stdin)
	errors.Fatal(err)
}
