// Package reference serves the reference sub-collections of a tenant's
// organization document as a JSON API mounted under /api.
package reference

import (
	"github.com/dalemusser/refhub/internal/app/refdata"
	"github.com/dalemusser/refhub/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves one entity kind.
type Handler[E any] struct {
	Engine *refdata.Engine[E]
	Log    *zap.Logger
}

// NewHandler constructs a Handler for engine.
func NewHandler[E any](engine *refdata.Engine[E], logger *zap.Logger) *Handler[E] {
	return &Handler[E]{
		Engine: engine,
		Log:    logger.With(zap.String("kind", engine.Kind())),
	}
}

// StateHandler adds the by-country listing to the state handler.
type StateHandler struct {
	*Handler[models.State]
	States *refdata.StateEngine
}

// NewStateHandler constructs a StateHandler.
func NewStateHandler(states *refdata.StateEngine, logger *zap.Logger) *StateHandler {
	return &StateHandler{
		Handler: NewHandler(states.Engine, logger),
		States:  states,
	}
}
