package main

import "github.com/hkbatradar/Spectrogram/cmd"

func main() {
	cmd.Execute()
}
