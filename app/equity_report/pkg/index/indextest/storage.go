// Package indextest 在测试中写出 llama-index 布局的持久化目录。
package indextest

import (
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/index"
)

// WriteStorage 把各索引的节点写入 dir
func WriteStorage(dir string, indexes map[string][]index.Node) error {
	docs := map[string]any{}
	stores := map[string]any{}
	embeddings := map[string][]float64{}
	refs := map[string]string{}

	for indexID, nodes := range indexes {
		nodesDict := map[string]string{}
		for _, n := range nodes {
			nodesDict[n.ID] = n.ID
			docs[n.ID] = map[string]any{
				"__type__": "1",
				"__data__": map[string]any{"id_": n.ID, "text": n.Text, "metadata": n.Metadata},
			}
			embeddings[n.ID] = n.Embedding
			if n.RefDocID != "" {
				refs[n.ID] = n.RefDocID
			}
		}
		inner, err := sonic.MarshalString(map[string]any{"index_id": indexID, "nodes_dict": nodesDict})
		if err != nil {
			return err
		}
		stores[indexID] = map[string]any{"__type__": "vector_store", "__data__": inner}
	}

	files := map[string]any{
		index.DocStoreFile:   map[string]any{"docstore/data": docs},
		index.IndexStoreFile: map[string]any{"index_store/data": stores},
		index.VectorStoreFile: map[string]any{
			"embedding_dict":        embeddings,
			"text_id_to_ref_doc_id": refs,
			"metadata_dict":         map[string]any{},
		},
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for name, content := range files {
		data, err := sonic.Marshal(content)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// AppleNodes 三个二维向量节点：营收、风险、现金流
func AppleNodes() []index.Node {
	return []index.Node{
		{ID: "apple-1", Text: "Total net sales were $394.3 billion in fiscal 2022.", RefDocID: "10k_Apple.pdf", Metadata: map[string]any{"page_label": "21"}, Embedding: []float64{1, 0}},
		{ID: "apple-2", Text: "The Company's operations are subject to supply chain risks.", RefDocID: "10k_Apple.pdf", Metadata: map[string]any{"page_label": "9"}, Embedding: []float64{0, 1}},
		{ID: "apple-3", Text: "Cash generated by operating activities was $122.2 billion.", RefDocID: "10k_Apple.pdf", Metadata: map[string]any{"page_label": "24"}, Embedding: []float64{0.8, 0.6}},
	}
}
