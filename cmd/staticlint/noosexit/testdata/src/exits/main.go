package main

import (
	"fmt"
	"os"
)

func helper() {
	os.Exit(2)
}

func main() {
	defer fmt.Println("never printed")

	if len(os.Args) > 3 {
		helper()
	}

	cleanup := func() {
		os.Exit(3)
	}
	_ = cleanup

	os.Exit(1) // want "avoid using os.Exit in main.main"
}
