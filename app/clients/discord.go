package clients

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

const discordMessageLimit = 2000

var _ Interface = &DiscordClient{}

// DiscordClient answers channel messages. Each channel keeps its own selected
// character, starting with the first configured one.
type DiscordClient struct {
	Client
	session   *discordgo.Session
	channelID string

	mu            sync.Mutex
	conversations map[string]*Conversation
	ctx           context.Context
}

// NewDiscordClientFromConfig reads token and channel_id from cfg, falling
// back to DISCORD_TOKEN and DISCORD_CHANNEL_ID.
func NewDiscordClientFromConfig(cfg map[string]string) (*DiscordClient, error) {
	token := cfg["token"]
	if token == "" {
		token = os.Getenv("DISCORD_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("discord token is empty")
	}
	channelID := cfg["channel_id"]
	if channelID == "" {
		channelID = os.Getenv("DISCORD_CHANNEL_ID")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	dc := newDiscordClient(channelID)
	dc.session = session

	session.AddHandler(dc.onMessageCreate)
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent

	return dc, nil
}

func newDiscordClient(channelID string) *DiscordClient {
	return &DiscordClient{
		channelID:     channelID,
		conversations: make(map[string]*Conversation),
		ctx:           context.Background(),
	}
}

func (c *DiscordClient) Run(ctx context.Context) error {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	log.Println("✅ Discord client started. Listening for messages...")

	<-ctx.Done()
	return c.Close()
}

func (c *DiscordClient) Close() error {
	return c.session.Close()
}

func (c *DiscordClient) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || (s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID) {
		return
	}
	if c.channelID != "" && m.ChannelID != c.channelID {
		return
	}

	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()

	if !strings.HasPrefix(strings.TrimSpace(m.Content), "!") {
		_ = s.ChannelTyping(m.ChannelID)
	}
	reply := c.handleMessage(ctx, m.ChannelID, m.Content)
	if reply == "" {
		return
	}
	for _, part := range splitMessage(reply, discordMessageLimit) {
		if err := c.SendMessage(m.ChannelID, part); err != nil {
			log.Printf("⚠️ Error sending discord message: %v", err)
			return
		}
	}
}

// handleMessage returns the text to post back for one channel message.
func (c *DiscordClient) handleMessage(ctx context.Context, channelID, content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}
	conv := c.conversation(channelID)

	switch {
	case content == "!heroes":
		return "Available superheroes: " + strings.Join(c.runtime.Characters(), ", ") +
			"\nCurrently talking to: " + c.selected(conv)
	case content == "!hero" || strings.HasPrefix(content, "!hero "):
		name := strings.TrimSpace(strings.TrimPrefix(content, "!hero"))
		if name == "" {
			return "Usage: !hero <name>"
		}
		character, ok := c.runtime.FindCharacter(name)
		if !ok {
			return fmt.Sprintf("Unknown superhero %q. Try !heroes", name)
		}
		c.mu.Lock()
		conv.Select(character)
		c.mu.Unlock()
		return fmt.Sprintf("You are now chatting with %s.", character)
	case strings.HasPrefix(content, "!"):
		return "Commands: !heroes | !hero <name> | anything else is a question"
	}

	character := c.selected(conv)
	reply, err := c.runtime.GetResponse(ctx, content, character)
	if err != nil {
		log.Printf("❌ Discord question failed: %v", err)
		return fmt.Sprintf("%s could not answer right now.", character)
	}
	return reply
}

func (c *DiscordClient) selected(conv *Conversation) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return conv.Character
}

func (c *DiscordClient) conversation(channelID string) *Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()

	conv, ok := c.conversations[channelID]
	if !ok {
		conv = &Conversation{Character: c.runtime.DefaultCharacter()}
		c.conversations[channelID] = conv
	}
	return conv
}

func (c *DiscordClient) SendMessage(channelID, content string) error {
	if channelID == "" {
		return fmt.Errorf("channelID is empty")
	}
	if _, err := c.session.ChannelMessageSend(channelID, content); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}
	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' || runes[i-1] == ' ' {
				cut = i
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
