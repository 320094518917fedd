package agent

import "github.com/taskforge-dev/taskforge/model"

// Token budgets per model role, per invocation input. Since budgets are
// enforced at the AgentInvoker (model-role) level rather than per node,
// each node role maps to the tightest of the applicable limits.
const (
	BudgetScopeAgent             = 15000
	BudgetTaskPlanner            = 12000
	BudgetImplementor            = 15000
	BudgetImplementorSummarize   = 30000
	BudgetQA                     = 10000
	BudgetAssessor               = 5000
)

// estimateTokens is a crude chars/4 estimate: enforcement here is
// advisory, good enough to trigger summarization and BudgetError, not a
// tokenizer.
func estimateTokens(messages []model.Message) int {
	total := 0
	for _, m := range messages {
		total += len(m.Content) / 4
	}
	return total
}

// ModelPricing is per-million-token pricing for the models this engine
// actually configures across the Anthropic, OpenAI, and Gemini providers.
type ModelPricing struct {
	InputPer1M  float64
	OutputPer1M float64
}

var defaultModelPricing = map[string]ModelPricing{
	"gpt-4o":                        {InputPer1M: 2.50, OutputPer1M: 10.00},
	"gpt-4o-mini":                    {InputPer1M: 0.15, OutputPer1M: 0.60},
	"gpt-4-turbo":                    {InputPer1M: 10.00, OutputPer1M: 30.00},
	"claude-sonnet-4-5-20250929":     {InputPer1M: 3.00, OutputPer1M: 15.00},
	"claude-3-5-haiku-20241022":      {InputPer1M: 0.80, OutputPer1M: 4.00},
	"gemini-1.5-pro":                 {InputPer1M: 1.25, OutputPer1M: 5.00},
	"gemini-1.5-flash":               {InputPer1M: 0.075, OutputPer1M: 0.30},
}

// CostTracker accumulates the dollar cost of every Chat call across a
// run, so an operator can surface spend alongside the work report.
type CostTracker struct {
	totalsByModel map[string]float64
}

// NewCostTracker returns an empty CostTracker.
func NewCostTracker() *CostTracker {
	return &CostTracker{totalsByModel: make(map[string]float64)}
}

// Record adds the cost of one Chat call to the running total for
// modelName, using defaultModelPricing (zero cost for unknown models,
// since an unpriced model shouldn't abort a run over a reporting gap).
func (c *CostTracker) Record(modelName string, out model.ChatOut) {
	pricing, ok := defaultModelPricing[modelName]
	if !ok {
		return
	}
	cost := float64(out.InputTokens)/1_000_000*pricing.InputPer1M +
		float64(out.OutputTokens)/1_000_000*pricing.OutputPer1M
	c.totalsByModel[modelName] += cost
}

// Total returns the accumulated cost across every model.
func (c *CostTracker) Total() float64 {
	var total float64
	for _, v := range c.totalsByModel {
		total += v
	}
	return total
}
