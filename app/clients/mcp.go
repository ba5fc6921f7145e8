package clients

import (
	"context"
	"fmt"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var _ Interface = &MCPClient{}

// MCPClient exposes the chat as MCP tools over stdio. Stdout belongs to the
// protocol, so nothing else may print to it while this client runs.
type MCPClient struct {
	Client
	name    string
	version string
}

func NewMCPClient(cfg map[string]string) *MCPClient {
	c := &MCPClient{name: cfg["name"], version: cfg["version"]}
	if c.name == "" {
		c.name = "herochat"
	}
	if c.version == "" {
		c.version = "1.0.0"
	}
	return c
}

type askInput struct {
	Question  string `json:"question" jsonschema:"the question to ask"`
	Superhero string `json:"superhero,omitempty" jsonschema:"who answers; defaults to the first configured superhero"`
}

type askOutput struct {
	Superhero string `json:"superhero"`
	Reply     string `json:"reply"`
}

type listOutput struct {
	Superheroes []string `json:"superheroes"`
}

func (c *MCPClient) Server() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: c.name, Version: c.version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_superhero",
		Description: "Ask a question and get the answer in the voice of a superhero.",
	}, c.ask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_superheroes",
		Description: "List the superheroes that can answer questions.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, listOutput, error) {
		return nil, listOutput{Superheroes: c.runtime.Characters()}, nil
	})

	return server
}

func (c *MCPClient) ask(ctx context.Context, req *mcp.CallToolRequest, in askInput) (*mcp.CallToolResult, askOutput, error) {
	if in.Question == "" {
		return nil, askOutput{}, fmt.Errorf("question is required")
	}
	character := c.runtime.DefaultCharacter()
	if in.Superhero != "" {
		found, ok := c.runtime.FindCharacter(in.Superhero)
		if !ok {
			return nil, askOutput{}, fmt.Errorf("unknown superhero %q", in.Superhero)
		}
		character = found
	}

	reply, err := c.runtime.GetResponse(ctx, in.Question, character)
	if err != nil {
		return nil, askOutput{}, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: reply}},
	}, askOutput{Superhero: character, Reply: reply}, nil
}

func (c *MCPClient) Run(ctx context.Context) error {
	log.Printf("✅ MCP server %s listening on stdio", c.name)
	if err := c.Server().Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
