package main

import "github.com/RyanBlaney/speech-trainer/cmd"

func main() {
	cmd.Execute()
}
