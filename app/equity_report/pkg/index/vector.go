package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/callback"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/engine"
)

// DefaultTopK 默认召回数量
const DefaultTopK = 3

// Node 索引中的一个文本块
type Node struct {
	ID        string
	Text      string
	RefDocID  string
	Metadata  map[string]any
	Embedding []float64
}

// VectorIndex 内存中的向量索引，加载后只读
type VectorIndex struct {
	id       string
	nodes    []Node
	embedder embedding.Embedder
}

// NewVectorIndex 用已向量化的节点创建索引
func NewVectorIndex(id string, nodes []Node, embedder embedding.Embedder) *VectorIndex {
	return &VectorIndex{id: id, nodes: nodes, embedder: embedder}
}

// ID 索引 id
func (ix *VectorIndex) ID() string { return ix.id }

// Len 节点数
func (ix *VectorIndex) Len() int { return len(ix.nodes) }

// AsRetriever 创建检索器，mgr 可为 nil
func (ix *VectorIndex) AsRetriever(topK int, scoreThreshold float64, mgr *callback.Manager) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{index: ix, topK: topK, threshold: scoreThreshold, callbacks: mgr}
}

// AsQueryEngine 检索 topK 个节点后由 cm 合成答案
func (ix *VectorIndex) AsQueryEngine(cm model.BaseChatModel, topK int, scoreThreshold float64, mgr *callback.Manager) *engine.RetrieverQueryEngine {
	return engine.NewRetrieverQueryEngine(ix.AsRetriever(topK, scoreThreshold, mgr), engine.NewSynthesizer(cm, mgr), mgr)
}

// Retriever 实现 eino retriever.Retriever
type Retriever struct {
	index     *VectorIndex
	topK      int
	threshold float64
	callbacks *callback.Manager
}

var _ retriever.Retriever = (*Retriever)(nil)

// Retrieve 返回与 query 最相似的 topK 个节点，分数写在文档元数据中
func (r *Retriever) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	topK, threshold := r.topK, r.threshold
	o := retriever.GetCommonOptions(&retriever.Options{TopK: &topK, ScoreThreshold: &threshold, Embedding: r.index.embedder}, opts...)
	if o.TopK != nil && *o.TopK > 0 {
		topK = *o.TopK
	}
	if o.ScoreThreshold != nil {
		threshold = *o.ScoreThreshold
	}
	if o.Embedding == nil {
		return nil, errors.New("retriever: embedder not configured")
	}

	ctx, ev := r.callbacks.OnStart(ctx, callback.EventRetrieve, &callback.RetrievePayload{Query: query})

	vecs, err := o.Embedding.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return nil, errors.New("embed query: empty embedding")
	}

	docs, err := r.index.search(vecs[0], topK, threshold)
	if err != nil {
		return nil, err
	}

	r.callbacks.OnEnd(ctx, ev, &callback.RetrievePayload{Query: query, Documents: docs})
	return docs, nil
}

type scored struct {
	node  *Node
	score float64
}

func (ix *VectorIndex) search(query []float64, topK int, threshold float64) ([]*schema.Document, error) {
	results := make([]scored, 0, len(ix.nodes))
	for i := range ix.nodes {
		n := &ix.nodes[i]
		if len(n.Embedding) != len(query) {
			return nil, fmt.Errorf("query embedding dimension %d does not match index %s dimension %d", len(query), ix.id, len(n.Embedding))
		}
		score := Cosine(query, n.Embedding)
		if threshold > 0 && score < threshold {
			continue
		}
		results = append(results, scored{node: n, score: score})
	}

	slices.SortStableFunc(results, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})
	if len(results) > topK {
		results = results[:topK]
	}

	docs := make([]*schema.Document, 0, len(results))
	for _, res := range results {
		meta := make(map[string]any, len(res.node.Metadata)+1)
		for k, v := range res.node.Metadata {
			meta[k] = v
		}
		if res.node.RefDocID != "" {
			meta["ref_doc_id"] = res.node.RefDocID
		}
		doc := &schema.Document{ID: res.node.ID, Content: res.node.Text, MetaData: meta}
		docs = append(docs, doc.WithScore(res.score))
	}
	return docs, nil
}

// Cosine 余弦相似度，任一向量为零向量时返回 0
func Cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
