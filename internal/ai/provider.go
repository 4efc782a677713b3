// Package ai is the extraction adapter: it turns DANFE text into a
// structured draft through an AI provider. Failures never propagate as
// errors past Extract; they degrade to a draft carrying the erro payload.
package ai

import "context"

// Provider is one AI backend able to answer an extraction prompt with raw
// (hopefully JSON) text. Implementations apply their own timeouts and
// return an error rather than hang the pipeline.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
