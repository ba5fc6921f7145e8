package clients

import (
	"context"
	"sync"
	"time"

	"HeroChatAI/app/identity"
	"HeroChatAI/app/pipeline"
	"HeroChatAI/app/runtime"
)

// echoGraph answers with "<partition>: <question>" prefixed by newlines.
type echoGraph struct {
	mu        sync.Mutex
	questions []string
}

func (g *echoGraph) Run(_ context.Context, inputs map[string]pipeline.Values) (map[string]pipeline.Values, error) {
	question := inputs[pipeline.StageMultiplexer]["value"].(string)
	partition := inputs[pipeline.StageRetriever]["partition"].(string)

	g.mu.Lock()
	g.questions = append(g.questions, question)
	g.mu.Unlock()

	return map[string]pipeline.Values{
		pipeline.StageGenerator: {"replies": []string{"\n" + partition + ": " + question}},
	}, nil
}

func (g *echoGraph) Describe() string { return "echo" }

func newTestRuntime() (*runtime.Runtime, *echoGraph) {
	graph := &echoGraph{}
	resolver := identity.NewResolver(map[string][]string{
		"Batman":   {"Dark Knight"},
		"Superman": {"Man of Steel"},
	})
	return runtime.NewRuntime([]string{"Batman", "Superman"}, resolver, graph, time.Second), graph
}
