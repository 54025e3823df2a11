package main

import (
	"log"
	"os"

	cliutils "github.com/pagestack/pagestack-go/cli-utils"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		target := "."
		if len(os.Args) > 2 {
			target = os.Args[2]
		}
		if err := cliutils.InitProject(target); err != nil {
			log.Fatalf("init failed: %v", err)
		}
	case "page":
		if len(os.Args) < 4 || os.Args[2] != "add" {
			printHelp()
			os.Exit(1)
		}
		if err := cliutils.AddPage(os.Args[3]); err != nil {
			log.Fatalf("page add failed: %v", err)
		}
	default:
		printHelp()
		os.Exit(1)
	}
}
