package runtime

import (
	"context"
	"errors"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"HeroChatAI/app/errs"
	"HeroChatAI/app/identity"
	"HeroChatAI/app/pipeline"
)

// Graph is the executable chat pipeline.
type Graph interface {
	Run(ctx context.Context, inputs map[string]pipeline.Values) (map[string]pipeline.Values, error)
	Describe() string
}

// Request is the per-question state. It lives only for one GetResponse call.
type Request struct {
	ID        string
	Question  string
	Character string
	Aliases   identity.AliasSet
}

// Runtime answers questions in the voice of the configured characters. All
// of its fields are fixed at construction, so one Runtime serves every client
// concurrently.
type Runtime struct {
	characters []string
	resolver   *identity.Resolver
	graph      Graph
	timeout    time.Duration
}

func NewRuntime(characters []string, resolver *identity.Resolver, graph Graph, timeout time.Duration) *Runtime {
	return &Runtime{
		characters: slices.Clone(characters),
		resolver:   resolver,
		graph:      graph,
		timeout:    timeout,
	}
}

// Characters returns the selectable characters in configuration order.
func (r *Runtime) Characters() []string {
	return slices.Clone(r.characters)
}

// DefaultCharacter is the first configured character.
func (r *Runtime) DefaultCharacter() string {
	if len(r.characters) == 0 {
		return ""
	}
	return r.characters[0]
}

// FindCharacter matches name against the configured characters ignoring case.
func (r *Runtime) FindCharacter(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, c := range r.characters {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}

func (r *Runtime) Describe() string {
	return r.graph.Describe()
}

// NewRequest validates the character and resolves its aliases. It performs no
// external calls.
func (r *Runtime) NewRequest(question, character string) (*Request, error) {
	const op = "runtime.NewRequest"
	if !slices.Contains(r.characters, character) {
		return nil, errs.New(errs.ErrConfiguration, op, "unknown character %q", character)
	}
	aliases, err := r.resolver.Resolve(character)
	if err != nil {
		return nil, err
	}
	return &Request{
		ID:        uuid.NewString(),
		Question:  question,
		Character: character,
		Aliases:   aliases,
	}, nil
}

// GetResponse runs the pipeline for one question and returns the first
// generated reply without its leading newlines.
func (r *Runtime) GetResponse(ctx context.Context, question, character string) (string, error) {
	req, err := r.NewRequest(question, character)
	if err != nil {
		log.Printf("❌ Rejected request for %q: %v", character, err)
		return "", err
	}
	return r.Run(ctx, req)
}

func (r *Runtime) Run(ctx context.Context, req *Request) (string, error) {
	const op = "runtime.Run"
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	ctx = pipeline.WithRequestID(ctx, req.ID)

	start := time.Now()
	log.Printf("🦸 [%s] Question for %s: %q", req.ID, req.Character, req.Question)

	result, err := r.graph.Run(ctx, map[string]pipeline.Values{
		pipeline.StageMultiplexer: {"value": req.Question},
		pipeline.StagePrompt:      {"superhero_names": req.Aliases},
		pipeline.StageRetriever:   {"partition": req.Character},
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, errs.ErrTimeout) {
			// Stages report the expired deadline in their own terms (gRPC
			// status codes, transport errors), so the request deadline decides.
			err = &errs.Error{Kind: errs.ErrTimeout, Op: op, Err: errors.Join(ctx.Err(), err)}
		} else {
			err = errs.Wrap(errs.ErrPipelineExecution, op, err)
		}
		log.Printf("❌ [%s] Pipeline failed after %s: %v", req.ID, time.Since(start), err)
		return "", err
	}

	replies, ok := result[pipeline.StageGenerator]["replies"].([]string)
	if !ok || len(replies) == 0 {
		return "", errs.New(errs.ErrGenerationService, op, "pipeline produced no replies")
	}

	log.Printf("✅ [%s] Reply generated in %s", req.ID, time.Since(start))
	return strings.TrimLeft(replies[0], "\n"), nil
}
