package clients

import (
	"context"

	"HeroChatAI/app/runtime"
)

// Interface is a chat surface. Subscribe hands it the runtime; Run serves
// users until ctx is cancelled or the surface is closed by its user.
type Interface interface {
	Subscribe(*runtime.Runtime)
	Run(ctx context.Context) error
}

type Client struct {
	runtime *runtime.Runtime
}

func (c *Client) Subscribe(rt *runtime.Runtime) {
	c.runtime = rt
}

type Exchange struct {
	Question string
	Reply    string
}

// Conversation is the display state of one chat: the selected character and
// what was said to it. Nothing here reaches the pipeline.
type Conversation struct {
	Character string
	History   []Exchange
}

// Select switches the character. Switching to a different one clears the
// history.
func (c *Conversation) Select(character string) bool {
	if c.Character == character {
		return false
	}
	c.Character = character
	c.History = nil
	return true
}

func (c *Conversation) Record(question, reply string) {
	c.History = append(c.History, Exchange{Question: question, Reply: reply})
}
