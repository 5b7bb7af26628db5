// Command qtchat runs the persona engine from a terminal: classify a
// devotional reflection, then talk with the matched persona.
package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

// Options is the root command. The struct tags are interpreted by
// github.com/jessevdk/go-flags.
type Options struct {
	Provider string      `short:"p" long:"provider" description:"text generation provider (gemini, groq, openai); defaults to LLM_PROVIDER"`
	Classify ClassifyCmd `command:"classify" description:"Match a reflection to a persona"`
	Chat     ChatCmd     `command:"chat" description:"Classify a reflection, then chat with the persona"`
	Personas PersonasCmd `command:"personas" description:"List the personas"`
}

var opts Options

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
