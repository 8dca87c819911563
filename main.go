package main

import (
	"github.com/opentext-idol/go-configuration-idol/cmd"
)

func main() {
	cmd.Execute()
}
