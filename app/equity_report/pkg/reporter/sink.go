package reporter

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/logger"
)

// BlockKind 输出块类型
type BlockKind string

const (
	KindText      BlockKind = "text"
	KindMarkdown  BlockKind = "markdown"
	KindSeparator BlockKind = "separator"
)

// Block 追加到输出面的一段内容
type Block struct {
	Kind BlockKind `json:"kind"`
	Text string    `json:"text,omitempty"`
}

// Text 纯文本块
func Text(s string) Block { return Block{Kind: KindText, Text: s} }

// Markdown markdown 块
func Markdown(s string) Block { return Block{Kind: KindMarkdown, Text: s} }

// Separator 分隔线
func Separator() Block { return Block{Kind: KindSeparator} }

// Sink 只追加的输出面。实现方自行吞掉渲染错误
type Sink interface {
	Append(b Block)
}

// SinkFunc 函数适配器
type SinkFunc func(b Block)

func (f SinkFunc) Append(b Block) { f(b) }

// BufferSink 内存输出面，并发安全
type BufferSink struct {
	mu     sync.Mutex
	blocks []Block
}

func NewBufferSink() *BufferSink {
	return &BufferSink{}
}

func (s *BufferSink) Append(b Block) {
	s.mu.Lock()
	s.blocks = append(s.blocks, b)
	s.mu.Unlock()
}

// Blocks 当前内容的快照
func (s *BufferSink) Blocks() []Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Block(nil), s.blocks...)
}

// Markdown 把已追加的内容拼成 markdown
func (s *BufferSink) Markdown() string {
	var sb strings.Builder
	for _, b := range s.Blocks() {
		sb.WriteString(renderBlock(b))
	}
	return sb.String()
}

// WriterSink 把块写到 io.Writer，用于命令行
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Append(b Block) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, renderBlock(b)); err != nil {
		logger.Log.Warnf("写入输出失败: %v", err)
	}
}

func renderBlock(b Block) string {
	switch b.Kind {
	case KindSeparator:
		return "\n---\n\n"
	case KindMarkdown:
		return b.Text + "\n\n"
	default:
		return fmt.Sprintf("%s\n", b.Text)
	}
}
