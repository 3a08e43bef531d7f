package main

import "github.com/MarcoKoch/sphinx-cmake-domain/cmd"

func main() {
	cmd.Execute()
}
