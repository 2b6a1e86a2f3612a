package server

import (
	"github.com/google/wire"

	"github.com/iWorld-y/equity_report/app/display/internal/biz"
	"github.com/iWorld-y/equity_report/app/display/internal/data"
	"github.com/iWorld-y/equity_report/app/display/internal/service"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/filing"
	"github.com/iWorld-y/equity_report/app/equity_report/pkg/report"
)

// ProviderSet 是展示服务的依赖注入 Provider 集合
var ProviderSet = wire.NewSet(
	// Server providers
	NewHTTPServer,

	// Engine providers
	NewReportGenerator,
	wire.Bind(new(biz.Generator), new(*report.Generator)),
	NewFilingPreviewer,
	wire.Bind(new(biz.Previewer), new(*filing.Previewer)),

	// Data providers
	data.NewData,
	data.NewReportRepo,

	// UseCase providers
	biz.NewReportUseCase,

	// Service providers
	service.NewReportService,
)
