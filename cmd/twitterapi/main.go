// Command twitterapi serves the users and posts HTTP API.
package main

import (
	"log"

	"github.com/patric-chuzhbe/twitterapi/internal/app"
)

func run() error {
	application, err := app.New()
	if err != nil {
		return err
	}
	defer application.Close()

	return application.Run()
}

func main() {
	if err := run(); err != nil {
		log.Fatalln(err)
	}
}
