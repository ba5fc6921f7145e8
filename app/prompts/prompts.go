package prompts

import (
	"strings"
	"text/template"

	"HeroChatAI/app/errs"
	"HeroChatAI/app/identity"
	"HeroChatAI/app/rag"
)

// DocumentDelimiter follows every context document in the rendered prompt.
const DocumentDelimiter = "------------------------------------------"

const sectionRule = "******************************************"

const characterPrompt = `You are a helpful AI assistant that mimics the tone of the specified character based on provided context documents. Use the context to capture and replicate the character's tone accurately.

You will be given a set of CONTEXT documents, which you should use to understand and replicate the character's tone in your response. The context should primarily inform the tone rather than the content of your answer. You may answer questions without the context if it is not necessary, but always ensure your tone matches that of the character.

Respond without prefacing with phrases like "Based on the context..." or "I think...".

{{rule}}
Context:
{{- range .Documents}}
{{.Content}}
{{delimiter}}
{{- end}}
{{rule}}
Copy the tone of these characters: {{.SuperheroNames}} dialogue and answer the following question:
{{rule}}
Question: {{.Query}}
{{rule}}
Answer:
`

var characterTemplate = template.Must(template.New("character").
	Funcs(template.FuncMap{
		"rule":      func() string { return sectionRule },
		"delimiter": func() string { return DocumentDelimiter },
	}).
	Parse(characterPrompt))

type promptData struct {
	Documents      []rag.Document
	SuperheroNames string
	Query          string
}

// Builder renders the character prompt. It holds no per-call state and is
// safe for concurrent use.
type Builder struct {
	tmpl *template.Template
}

func NewBuilder() *Builder {
	return &Builder{tmpl: characterTemplate}
}

// Build renders the question, the documents in the order given and the
// alias set into a prompt. Documents are never truncated or reordered.
func (b *Builder) Build(question string, docs []rag.Document, aliases identity.AliasSet) (string, error) {
	var sb strings.Builder
	err := b.tmpl.Execute(&sb, promptData{
		Documents:      docs,
		SuperheroNames: aliases.String(),
		Query:          question,
	})
	if err != nil {
		return "", errs.Wrap(errs.ErrPipelineExecution, "prompts.Build", err)
	}
	return sb.String(), nil
}
