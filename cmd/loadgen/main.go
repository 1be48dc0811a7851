package main

import (
	"log"

	tool "github.com/stewardhq/steward/internal/tools/loadgen"
)

func main() {
	if err := tool.NewRootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}
