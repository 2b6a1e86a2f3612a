package index

import (
	"context"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/cache"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/company"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/logger"
)

// Loader 从持久化目录加载索引，解析结果与索引都会缓存
type Loader struct {
	persistDir string
	embedder   embedding.Embedder
	contexts   *cache.Memo[*StorageContext]
	indexes    *cache.Memo[*VectorIndex]
}

// NewLoader 创建加载器
func NewLoader(persistDir string, embedder embedding.Embedder) *Loader {
	return &Loader{
		persistDir: persistDir,
		embedder:   embedder,
		contexts:   cache.NewMemo[*StorageContext](),
		indexes:    cache.NewMemo[*VectorIndex](),
	}
}

// LoadCompany 加载公司对应的索引 index_<公司名>
func (l *Loader) LoadCompany(ctx context.Context, name string) (*VectorIndex, error) {
	return l.Load(ctx, company.IndexID(name))
}

// Load 按 index_id 加载索引
func (l *Loader) Load(ctx context.Context, indexID string) (*VectorIndex, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.indexes.Get(indexID, func() (*VectorIndex, error) {
		sc, err := l.contexts.Get(l.persistDir, func() (*StorageContext, error) {
			return LoadStorageContext(l.persistDir)
		})
		if err != nil {
			return nil, err
		}
		nodes, err := sc.Nodes(indexID)
		if err != nil {
			return nil, err
		}
		logger.Log.Infof("已加载索引 [%s]，共 %d 个节点", indexID, len(nodes))
		return NewVectorIndex(indexID, nodes, l.embedder), nil
	})
}

// Invalidate 丢弃指定索引的缓存
func (l *Loader) Invalidate(indexID string) {
	l.indexes.Invalidate(indexID)
}

// Reload 丢弃全部缓存，下次加载时重新读取持久化目录
func (l *Loader) Reload() {
	l.contexts.Purge()
	l.indexes.Purge()
}
