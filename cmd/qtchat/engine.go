package main

import (
	"io"
	"os"

	"graceqt-backend/internal/config"
	"graceqt-backend/internal/persona"
	"graceqt-backend/internal/services"
)

var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
)

type engine struct {
	classifier *persona.Classifier
	session    *persona.Session
	close      func()
}

// newEngine builds the same classifier and session the server uses.
var newEngine = func(provider string) (*engine, error) {
	cfg := config.LoadLLM()
	if provider != "" {
		cfg.Provider = provider
	}

	gen, closeGen, err := services.NewGenerator(cfg)
	if err != nil {
		return nil, err
	}

	registry := persona.DefaultRegistry()
	return &engine{
		classifier: persona.NewClassifier(gen, registry, cfg.ClassifyTimeout),
		session:    persona.NewSession(gen, registry, cfg.ChatTimeout),
		close:      closeGen,
	}, nil
}
