package main

import (
	"fmt"
	"os"

	"github.com/AnyUserName/imgcorpus/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "imgcorpus:", err)
		os.Exit(1)
	}
}
