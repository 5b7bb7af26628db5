package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"graceqt-backend/internal/persona"
)

const quitCommand = "/quit"

type ClassifyCmd struct {
	Text string `short:"t" long:"text" required:"true" description:"devotional reflection to classify"`
}

func (c *ClassifyCmd) Execute(_ []string) error {
	eng, err := newEngine(opts.Provider)
	if err != nil {
		return err
	}
	defer eng.close()

	result, err := eng.classifier.Classify(context.Background(), c.Text)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, string(data))
	return nil
}

type ChatCmd struct {
	Text string `short:"t" long:"text" required:"true" description:"devotional reflection that opens the conversation"`
}

func (c *ChatCmd) Execute(_ []string) error {
	eng, err := newEngine(opts.Provider)
	if err != nil {
		return err
	}
	defer eng.close()

	ctx := context.Background()
	transcript := persona.NewTranscript()

	result, err := transcript.Start(ctx, eng.classifier, c.Text)
	if err != nil {
		return err
	}
	name := displayName(result.Persona)
	fmt.Fprintf(stdout, "[%s] %s\n\n%s: %s\n", name, result.Reason, name, result.OpeningMessage)

	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "\n> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == quitCommand {
			break
		}
		if line == "" {
			continue
		}

		reply, err := transcript.Send(ctx, eng.session, line)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s: %s\n", name, reply)
	}

	transcript.Close()
	fmt.Fprintln(stdout)
	return scanner.Err()
}

type PersonasCmd struct{}

func (c *PersonasCmd) Execute(_ []string) error {
	for _, p := range persona.DefaultRegistry().Profiles() {
		fmt.Fprintf(stdout, "%-7s %s  %s\n", p.ID, p.KoreanName, strings.Join(p.Vibe, ", "))
	}
	return nil
}

func displayName(id persona.ID) string {
	if p, ok := persona.DefaultRegistry().Profile(id); ok {
		return p.KoreanName
	}
	return string(id)
}
