package main

import "github.com/GeowazM/calcSpectralIndices/cmd"

func main() {
	cmd.Execute()
}
