// Package index 加载预先构建好的持久化向量索引，并提供基于余弦相似度的检索。
//
// 持久化目录沿用 llama-index simple storage 的布局，一个目录里可以存放多家公司的索引：
//
//	docstore.json               节点文本与元数据
//	index_store.json            index_id -> 节点列表
//	default__vector_store.json  节点向量
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
)

const (
	DocStoreFile    = "docstore.json"
	IndexStoreFile  = "index_store.json"
	VectorStoreFile = "default__vector_store.json"

	vectorStoreType = "vector_store"
)

var (
	// ErrIndexNotFound 持久化文件或 index_id 不存在
	ErrIndexNotFound = errors.New("index not found")
	// ErrCorruptIndex 持久化内容无法解析或不完整
	ErrCorruptIndex = errors.New("corrupt index")
)

type docStoreFile struct {
	Data map[string]docEntry `json:"docstore/data"`
}

type docEntry struct {
	Type string   `json:"__type__"`
	Data nodeData `json:"__data__"`
}

type nodeData struct {
	ID       string         `json:"id_"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

type indexStoreFile struct {
	Data map[string]indexEntry `json:"index_store/data"`
}

type indexEntry struct {
	Type string          `json:"__type__"`
	Data json.RawMessage `json:"__data__"`
}

type indexStruct struct {
	IndexID   string            `json:"index_id"`
	NodesDict map[string]string `json:"nodes_dict"`
}

type vectorStoreFile struct {
	EmbeddingDict    map[string][]float64      `json:"embedding_dict"`
	TextIDToRefDocID map[string]string         `json:"text_id_to_ref_doc_id"`
	MetadataDict     map[string]map[string]any `json:"metadata_dict"`
}

// StorageContext 一个持久化目录解析后的内容
type StorageContext struct {
	dir     string
	docs    map[string]nodeData
	indexes map[string]indexStruct
	vectors vectorStoreFile
}

// LoadStorageContext 读取并解析持久化目录
func LoadStorageContext(dir string) (*StorageContext, error) {
	var ds docStoreFile
	if err := readJSON(filepath.Join(dir, DocStoreFile), &ds); err != nil {
		return nil, err
	}
	var is indexStoreFile
	if err := readJSON(filepath.Join(dir, IndexStoreFile), &is); err != nil {
		return nil, err
	}
	var vs vectorStoreFile
	if err := readJSON(filepath.Join(dir, VectorStoreFile), &vs); err != nil {
		return nil, err
	}

	sc := &StorageContext{
		dir:     dir,
		docs:    make(map[string]nodeData, len(ds.Data)),
		indexes: make(map[string]indexStruct, len(is.Data)),
		vectors: vs,
	}
	for id, entry := range ds.Data {
		if entry.Data.ID == "" {
			entry.Data.ID = id
		}
		sc.docs[id] = entry.Data
	}
	for id, entry := range is.Data {
		if entry.Type != "" && entry.Type != vectorStoreType {
			continue
		}
		st, err := decodeIndexStruct(entry.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: index %s: %v", ErrCorruptIndex, id, err)
		}
		if st.IndexID == "" {
			st.IndexID = id
		}
		sc.indexes[id] = st
	}
	return sc, nil
}

// __data__ 在 llama-index 中是一段 JSON 字符串，也兼容直接写成对象
func decodeIndexStruct(raw json.RawMessage) (indexStruct, error) {
	var st indexStruct
	data := strings.TrimSpace(string(raw))
	if strings.HasPrefix(data, `"`) {
		var inner string
		if err := sonic.UnmarshalString(data, &inner); err != nil {
			return st, err
		}
		data = inner
	}
	err := sonic.UnmarshalString(data, &st)
	return st, err
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrIndexNotFound, path)
		}
		return err
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptIndex, path, err)
	}
	return nil
}

// Dir 持久化目录
func (sc *StorageContext) Dir() string { return sc.dir }

// IndexIDs 目录中所有向量索引的 id
func (sc *StorageContext) IndexIDs() []string {
	ids := make([]string, 0, len(sc.indexes))
	for id := range sc.indexes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Nodes 取出指定索引的全部节点，节点缺少文本或向量视为损坏
func (sc *StorageContext) Nodes(indexID string) ([]Node, error) {
	st, ok := sc.indexes[indexID]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrIndexNotFound, indexID, sc.dir)
	}
	if len(st.NodesDict) == 0 {
		return nil, fmt.Errorf("%w: index %s has no nodes", ErrCorruptIndex, indexID)
	}

	ids := make([]string, 0, len(st.NodesDict))
	for _, nodeID := range st.NodesDict {
		ids = append(ids, nodeID)
	}
	sort.Strings(ids)

	nodes := make([]Node, 0, len(ids))
	dim := 0
	for _, id := range ids {
		doc, ok := sc.docs[id]
		if !ok {
			return nil, fmt.Errorf("%w: node %s missing from docstore", ErrCorruptIndex, id)
		}
		if strings.TrimSpace(doc.Text) == "" {
			return nil, fmt.Errorf("%w: node %s has no text", ErrCorruptIndex, id)
		}
		vec, ok := sc.vectors.EmbeddingDict[id]
		if !ok || len(vec) == 0 {
			return nil, fmt.Errorf("%w: node %s has no embedding", ErrCorruptIndex, id)
		}
		if dim == 0 {
			dim = len(vec)
		} else if len(vec) != dim {
			return nil, fmt.Errorf("%w: node %s embedding dimension %d, want %d", ErrCorruptIndex, id, len(vec), dim)
		}
		nodes = append(nodes, Node{
			ID:        id,
			Text:      doc.Text,
			RefDocID:  sc.vectors.TextIDToRefDocID[id],
			Metadata:  doc.Metadata,
			Embedding: vec,
		})
	}
	return nodes, nil
}
