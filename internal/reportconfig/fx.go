package reportconfig

import (
	"go.uber.org/fx"

	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/reportconfig/repository"
	"github.com/Ivanbarauna-25/retifica-a-solu-o-adm-copy-sub000/internal/reportconfig/service"
)

var Module = fx.Module("reportconfig.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
