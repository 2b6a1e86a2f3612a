// Package company 公司元数据：名称、10-K 原文地址与财年说明。
package company

import (
	"errors"
	"fmt"

	"github.com/iWorld-y/equity_report/app/equity_report/pkg/config"
)

// ErrUnknownCompany 公司不在列表中
var ErrUnknownCompany = errors.New("unknown company")

// Company 公司元数据
type Company struct {
	Name       string `json:"name"`
	SourceURL  string `json:"source_url"`
	FiscalYear string `json:"fiscal_year"`
}

// IndexID 持久化索引的 id
func (c Company) IndexID() string {
	return IndexID(c.Name)
}

// IndexID 根据公司名得到索引 id
func IndexID(name string) string {
	return "index_" + name
}

// Catalog 只读、保持顺序的公司列表
type Catalog struct {
	list   []Company
	byName map[string]Company
}

// NewCatalog 创建列表，重名时保留第一个
func NewCatalog(companies ...Company) *Catalog {
	c := &Catalog{byName: make(map[string]Company, len(companies))}
	for _, co := range companies {
		if co.Name == "" {
			continue
		}
		if _, ok := c.byName[co.Name]; ok {
			continue
		}
		c.byName[co.Name] = co
		c.list = append(c.list, co)
	}
	return c
}

// FromConfig 配置了 companies 时使用配置，否则使用内置列表
func FromConfig(cfgs []config.CompanyConfig) *Catalog {
	if len(cfgs) == 0 {
		return Default()
	}
	list := make([]Company, 0, len(cfgs))
	for _, c := range cfgs {
		list = append(list, Company{Name: c.Name, SourceURL: c.URL, FiscalYear: c.FiscalYear})
	}
	return NewCatalog(list...)
}

// Names 公司名，顺序与定义一致
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.list))
	for _, co := range c.list {
		names = append(names, co.Name)
	}
	return names
}

// All 全部公司
func (c *Catalog) All() []Company {
	return append([]Company(nil), c.list...)
}

// Lookup 按名称查找
func (c *Catalog) Lookup(name string) (Company, error) {
	co, ok := c.byName[name]
	if !ok {
		return Company{}, fmt.Errorf("%w: %q", ErrUnknownCompany, name)
	}
	return co, nil
}

// Default 内置公司列表
func Default() *Catalog {
	return NewCatalog(
		Company{
			Name:       "Microsoft",
			SourceURL:  "https://microsoft.gcs-web.com/static-files/e2931fdb-9823-4130-b2a8-f6b8db0b15a9",
			FiscalYear: "For the Fiscal Year Ended June 30, 2023",
		},
		Company{
			Name:       "Alphabet",
			SourceURL:  "https://abc.xyz/assets/9a/bd/838c917c4b4ab21f94e84c3c2c65/goog-10-k-q4-2022.pdf",
			FiscalYear: "For the fiscal year ended December 31, 2022",
		},
		Company{
			Name:       "Amazon",
			SourceURL:  "https://d18rn0p25nwr6d.cloudfront.net/CIK-0001018724/d2fde7ee-05f7-419d-9ce8-186de4c96e25.pdf",
			FiscalYear: "For the fiscal year ended December 31, 2022",
		},
		Company{
			Name:       "Apple",
			SourceURL:  "https://d18rn0p25nwr6d.cloudfront.net/CIK-0000320193/b4266e40-1de6-4a34-9dfb-8632b8bd57e0.pdf",
			FiscalYear: "For the fiscal year ended September 24, 2022",
		},
		Company{
			Name:       "Tesla",
			SourceURL:  "https://ir.tesla.com/_flysystem/s3/sec/000095017023001409/tsla-20221231-gen.pdf",
			FiscalYear: "For the fiscal year ended December 31, 2022",
		},
		Company{
			Name:       "Nvidia",
			SourceURL:  "https://d18rn0p25nwr6d.cloudfront.net/CIK-0001045810/4e9abe7b-fdc7-4cd2-8487-dc3a99f30e98.pdf",
			FiscalYear: "For the fiscal year ended January 29, 2023",
		},
		Company{
			Name:       "Meta",
			SourceURL:  "https://d18rn0p25nwr6d.cloudfront.net/CIK-0001326801/e574646c-c642-42d9-9229-3892b13aabfb.pdf",
			FiscalYear: "For the fiscal year ended December 31, 2022",
		},
	)
}
