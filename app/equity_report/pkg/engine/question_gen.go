package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/callback"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/llm"
)

const subQuestionSystem = `Given a user question, and a list of tools, output a list of relevant sub-questions that when composed can help answer the full user question.
Each sub-question must be answerable by exactly one of the tools, and must name that tool.
Respond only with JSON of the following form:
{output_format}`

const subQuestionUser = `# Tools
{tools_str}

# User Question
{query_str}

# Sub Questions`

const subQuestionFormat = `{"items": [{"sub_question": "What was the revenue growth?", "tool_name": "engine"}]}`

var subQuestionPrompt = prompt.FromMessages(schema.FString,
	schema.SystemMessage(subQuestionSystem),
	schema.UserMessage(subQuestionUser),
)

// SubQuestion 模型拆分出的子问题
type SubQuestion struct {
	SubQuestion string `json:"sub_question"`
	ToolName    string `json:"tool_name"`
}

type subQuestionList struct {
	Items []SubQuestion `json:"items"`
}

// QuestionGenerator 让模型为问题生成子问题
type QuestionGenerator struct {
	model     model.BaseChatModel
	callbacks *callback.Manager
}

// NewQuestionGenerator mgr 可为 nil
func NewQuestionGenerator(cm model.BaseChatModel, mgr *callback.Manager) *QuestionGenerator {
	return &QuestionGenerator{model: cm, callbacks: mgr}
}

// Generate 返回去掉空问题后的子问题列表
func (g *QuestionGenerator) Generate(ctx context.Context, tools []ToolMetadata, query string) ([]SubQuestion, error) {
	vars := map[string]any{
		"output_format": subQuestionFormat,
		"tools_str":     formatTools(tools),
		"query_str":     query,
	}

	tctx, ev := g.callbacks.OnStart(ctx, callback.EventTemplating, &callback.TemplatingPayload{Template: subQuestionUser, Vars: vars})
	msgs, err := subQuestionPrompt.Format(tctx, vars)
	if err != nil {
		return nil, fmt.Errorf("format sub question prompt: %w", err)
	}
	g.callbacks.OnEnd(tctx, ev, &callback.TemplatingPayload{Template: subQuestionUser, Vars: vars})

	resp, err := llm.Generate(ctx, g.model, g.callbacks, "question_generator", msgs)
	if err != nil {
		return nil, fmt.Errorf("generate sub questions: %w", err)
	}
	return ParseSubQuestions(resp.Content)
}

// ParseSubQuestions 解析模型输出，兼容代码块包裹、裸数组和轻微损坏的 JSON
func ParseSubQuestions(raw string) ([]SubQuestion, error) {
	clean := llm.CleanJSON(raw)
	var items []SubQuestion
	if strings.HasPrefix(clean, "[") {
		if err := llm.DecodeJSON(clean, &items); err != nil {
			return nil, fmt.Errorf("parse sub questions: %w", err)
		}
	} else {
		var list subQuestionList
		if err := llm.DecodeJSON(clean, &list); err != nil {
			return nil, fmt.Errorf("parse sub questions: %w", err)
		}
		items = list.Items
	}

	out := make([]SubQuestion, 0, len(items))
	for _, it := range items {
		it.SubQuestion = strings.TrimSpace(it.SubQuestion)
		it.ToolName = strings.TrimSpace(it.ToolName)
		if it.SubQuestion == "" {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func formatTools(tools []ToolMetadata) string {
	var sb strings.Builder
	for _, t := range tools {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", t.Name, t.Description))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
