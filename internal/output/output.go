package output

import (
	"context"

	"github.com/hejijunhao/chatsift/internal/model"
)

// Output defines the interface for classification snapshot destinations.
type Output interface {
	Write(ctx context.Context, result model.ClusterResult) error
	Close() error
}
