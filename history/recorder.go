package history

import (
	"context"
	"errors"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/odm"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"go.uber.org/zap"
)

var (
	ErrDisabled = errors.New("run history is disabled")
	ErrNotFound = errors.New("run not found")
)

// Recorder persists run records. A nil collection disables it: saves are dropped and lookups
// return ErrDisabled.
type Recorder struct {
	collection odm.OdmCollectionInterface[RunRecord]
}

func NewRecorder(collection odm.OdmCollectionInterface[RunRecord]) *Recorder {
	return &Recorder{collection: collection}
}

func (r *Recorder) Enabled() bool {
	return r != nil && r.collection != nil
}

func (r *Recorder) Save(ctx context.Context, record RunRecord) error {
	if !r.Enabled() {
		return nil
	}

	_, err := async.Await(r.collection.Save(ctx, record))
	if err != nil {
		logger.Error("Failed to save run record", zap.String("runId", record.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *Recorder) Find(ctx context.Context, runID string) (*RunRecord, error) {
	if !r.Enabled() {
		return nil, ErrDisabled
	}

	record, err := async.Await(r.collection.FindOneByID(ctx, runID))
	if err != nil {
		logger.Error("Failed to find run record", zap.String("runId", runID), zap.Error(err))
		return nil, err
	}
	if record == nil {
		return nil, ErrNotFound
	}
	return record, nil
}
