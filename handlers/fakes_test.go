package handlers

import (
	"context"
	"errors"
	"sync"

	"rebeca/models"
)

type echoAgent struct {
	mu    sync.Mutex
	seen  []models.InboundMessage
	panic bool
}

func (a *echoAgent) HandleMessage(_ context.Context, msg models.InboundMessage) string {
	a.mu.Lock()
	a.seen = append(a.seen, msg)
	a.mu.Unlock()
	if a.panic {
		panic("agent exploded")
	}
	return "echo: " + msg.Text
}

func (a *echoAgent) messages() []models.InboundMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.InboundMessage(nil), a.seen...)
}

type post struct {
	channel, thread, text string
}

type fakeChat struct {
	mu        sync.Mutex
	posts     []post
	reactions []string
	failSends int
}

func (f *fakeChat) SendThreaded(_ context.Context, channel, thread, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSends > 0 {
		f.failSends--
		return errors.New("rate_limited")
	}
	f.posts = append(f.posts, post{channel, thread, text})
	return nil
}

func (f *fakeChat) AddReaction(_ context.Context, _, _, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, "+"+name)
	return nil
}

func (f *fakeChat) RemoveReaction(_ context.Context, _, _, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, "-"+name)
	return nil
}

func (f *fakeChat) snapshot() ([]post, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]post(nil), f.posts...), append([]string(nil), f.reactions...)
}
