package dre

import (
	"go.uber.org/fx"

	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/repository"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/dre/service"
)

var Module = fx.Module("dre.service",
	fx.Provide(
		repository.NewSourceReaders,
		repository.NewReferenceReader,
		repository.NewReportRepository,
	),
	fx.Provide(service.New),
)
