package sink

import (
	"go.uber.org/fx"
)

// Module provides the feature store sink.
var Module = fx.Module("sink",
	fx.Provide(NewStore),
)
