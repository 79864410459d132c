package main

import (
	"os"

	imagedexcmder "github.com/pixelheap/imagedex/cmd/imagedex"
)

func main() {
	cmd := imagedexcmder.NewImagedexCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
