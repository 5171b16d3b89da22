// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/panechat/internal/model"
	"github.com/jeranaias/panechat/internal/openai"
)

// =============================================================================
// AUTO-TITLING
// =============================================================================

// titlePrompt precedes the user's first message in the title request.
const titlePrompt = "Sumamrize the following in a fun way in under 6 words. " +
	"Never respond that you are unable to summarize, instead respond with the inputted text. " +
	"Never use quotes and don't end with a dot. Be goofy:\n\n"

// titleModel generates titles. Cheap and fast matters more than quality
// here.
const titleModel = "gpt-3.5-turbo"

// spawnTitle generates a conversation title in the background. Failures are
// logged and swallowed: a missing title never blocks or fails a send.
func (c *Controller) spawnTitle(conversationID int64, prompt string) {
	c.titleWG.Add(1)
	go func() {
		defer c.titleWG.Done()
		if err := c.generateTitle(context.Background(), conversationID, prompt); err != nil {
			c.log.Warn().Err(err).Int64("conversation", conversationID).Msg("title generation failed")
		}
	}()
}

func (c *Controller) generateTitle(ctx context.Context, conversationID int64, prompt string) error {
	// The empty sentinel goes in first so a second send during the stream
	// doesn't start a competing titling run.
	if err := c.store.SetConversationTitle(conversationID, ""); err != nil {
		return err
	}
	c.onUpdate(conversationID)

	cfg := c.configSnapshot()

	// The growing title is persisted as it streams, rate-limited so the
	// store isn't written once per token.
	limiter := rate.NewLimiter(rate.Every(200*time.Millisecond), 1)
	var title strings.Builder

	_, err := c.client.ChatStream(ctx, openai.ChatRequest{
		Model:       titleModel,
		Messages:    []openai.ChatMessage{{Role: string(model.RoleUser), Content: titlePrompt + prompt}},
		Temperature: 1,
		MaxTokens:   cfg.Defaults.TitleMaxTokens,
	}, func(delta string) {
		title.WriteString(cleanTitleDelta(delta))
		if limiter.Allow() {
			if err := c.store.SetConversationTitle(conversationID, title.String()); err != nil {
				c.log.Warn().Err(err).Msg("title write failed")
				return
			}
			c.onUpdate(conversationID)
		}
	})
	if err != nil {
		return err
	}

	// Final write: the limiter may have skipped the last deltas.
	if err := c.store.SetConversationTitle(conversationID, title.String()); err != nil {
		return err
	}
	c.onUpdate(conversationID)
	return nil
}

// cleanTitleDelta strips the punctuation the model keeps sneaking in: one
// period and one quote per delta.
func cleanTitleDelta(delta string) string {
	delta = strings.Replace(delta, ".", "", 1)
	return strings.Replace(delta, `"`, "", 1)
}
