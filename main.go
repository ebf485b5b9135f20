package main

import "github.com/kmutua/feedback-gateway/cmd"

func main() {
	cmd.Execute()
}
