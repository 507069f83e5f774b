package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aar-healthcare/medbot/domain/knowledge"
	"github.com/aar-healthcare/medbot/domain/search"
)

// Knowledge builds or loads the knowledge base.
type Knowledge struct {
	store    knowledge.Store
	embedder search.Embedder
	texts    []string
	logger   *slog.Logger
}

// NewKnowledge creates a Knowledge service for the given paragraphs.
func NewKnowledge(store knowledge.Store, embedder search.Embedder, texts []string, logger *slog.Logger) *Knowledge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Knowledge{store: store, embedder: embedder, texts: texts, logger: logger}
}

// Setup returns the persisted base when one exists. Otherwise it embeds
// every paragraph, persists the result and returns it.
func (k *Knowledge) Setup(ctx context.Context) (knowledge.Base, error) {
	base, err := k.store.Load(ctx)
	if err == nil {
		if base.Len() != len(k.texts) {
			k.logger.Warn("persisted knowledge differs from built-in paragraphs",
				slog.Int("persisted", base.Len()),
				slog.Int("built_in", len(k.texts)),
			)
		}
		k.logger.Info("loaded knowledge base", slog.Int("chunks", base.Len()), slog.Int("dimension", base.Dimension()))
		return base, nil
	}
	if !errors.Is(err, knowledge.ErrNotFound) {
		return knowledge.Base{}, fmt.Errorf("load knowledge: %w", err)
	}

	k.logger.Info("building knowledge base", slog.Int("chunks", len(k.texts)))
	start := time.Now()

	embeddings, err := k.embedder.Embed(ctx, k.texts)
	if err != nil {
		return knowledge.Base{}, fmt.Errorf("embed knowledge: %w", err)
	}
	base, err = knowledge.NewBase(k.texts, embeddings)
	if err != nil {
		return knowledge.Base{}, err
	}
	if err := k.store.Save(ctx, base); err != nil {
		return knowledge.Base{}, fmt.Errorf("save knowledge: %w", err)
	}

	k.logger.Info("built knowledge base",
		slog.Int("chunks", base.Len()),
		slog.Int("dimension", base.Dimension()),
		slog.Duration("took", time.Since(start)),
	)
	return base, nil
}
