//go:build ignore

package main

import (
	"fmt"
	"os"

	"github.com/ormasoftchile/stepbind/pkg/suite"
)

func main() {
	data, err := suite.GenerateJSONSchema()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile("schemas/suite-v0.json", data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("wrote schemas/suite-v0.json")
}
