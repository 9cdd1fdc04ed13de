package main

import (
	"github.com/spf13/cobra"
)

func main() {
	cfg := &Config{}

	cobra.CheckErr(newCmd(cfg).Execute())
}
