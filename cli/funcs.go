package main

import "log"

func printHelp() {
	log.Println("Usage: cli <command>")
	log.Println("\tinit <target> \tInitializes a new pages project in the <target> directory")
	log.Println("\tpage add <page name> \tScaffolds the view for a new page, e.g. CustomerOrdersPage")
	log.Println()
}
