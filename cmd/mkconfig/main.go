package main

import "github.com/goplus/mkconfig/cmd/mkconfig/internal"

func main() {
	internal.Execute()
}
