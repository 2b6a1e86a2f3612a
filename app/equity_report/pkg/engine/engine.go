// Package engine 实现检索增强的查询引擎。
//
// RetrieverQueryEngine 先检索再合成答案；SubQuestionQueryEngine 先让模型把问题
// 拆成若干子问题，交给对应的工具分别回答，最后合成总答案。执行过程中的事件
// 通过 callback.Manager 通知给监听者。
package engine

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/callback"
)

// QueryEngine 对一个自然语言问题给出答案
type QueryEngine interface {
	Query(ctx context.Context, query string) (*Response, error)
}

// Response 查询结果
type Response struct {
	Text         string
	SubQuestions []callback.SubQuestionAnswer
	Sources      []*schema.Document
}

func (r *Response) String() string {
	if r == nil {
		return ""
	}
	return r.Text
}

// ToolMetadata 工具名称与描述，描述会出现在拆分子问题的提示词中
type ToolMetadata struct {
	Name        string
	Description string
}

// Tool 可回答子问题的查询引擎
type Tool struct {
	Engine   QueryEngine
	Metadata ToolMetadata
}
