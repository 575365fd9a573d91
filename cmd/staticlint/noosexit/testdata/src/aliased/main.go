package main

import sys "os"

func main() {
	sys.Exit(0) // want "avoid using os.Exit in main.main"
}
