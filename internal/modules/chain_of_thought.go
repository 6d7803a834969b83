package modules

import "github.com/dspybridge/dspybridge/internal/llm"

// ReasoningField is the output ChainOfThought adds ahead of the signature outputs.
var ReasoningField = Field{
	Name: "reasoning",
	Desc: "Think step by step in order to produce the remaining outputs.",
}

// ChainOfThought is Predict with an explicit reasoning output.
type ChainOfThought struct {
	*Predict
}

func NewChainOfThought(client llm.Client, sig Signature) *ChainOfThought {
	return &ChainOfThought{Predict: NewPredict(client, sig.PrependOutput(ReasoningField))}
}
