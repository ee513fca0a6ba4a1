package service

import (
	"context"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
	"github.com/lycanzy/experimentdocumentationapp/internal/repository"
)

// RecordService manages the samples and metadata recorded on steps.
type RecordService struct {
	deps Deps
}

// NewRecordService creates a new RecordService.
func NewRecordService(deps Deps) *RecordService {
	return &RecordService{deps: deps.normalize()}
}

// AddSample records a sample on a step.
func (s *RecordService) AddSample(ctx context.Context, actor domain.Actor, in domain.SampleInput) (*domain.Sample, error) {
	if err := domain.ValidateSample(in); err != nil {
		return nil, AppError(err)
	}
	sample := &domain.Sample{StepID: in.StepID, Name: in.Name, Description: in.Description}
	err := s.deps.Store.RunInTx(ctx, func(q *repository.Queries) error {
		if _, err := loadStep(ctx, q, actor, in.StepID); err != nil {
			return err
		}
		if err := q.CreateSample(ctx, sample); err != nil {
			return err
		}
		return s.deps.Audit.LogStepOperation(ctx, q, "sample.add", in.StepID, actor,
			map[string]interface{}{"sample_id": sample.ID, "name": sample.Name})
	})
	if err != nil {
		return nil, AppError(err)
	}
	return sample, nil
}

// ListSamples returns the samples of a step.
func (s *RecordService) ListSamples(ctx context.Context, actor domain.Actor, stepID string) ([]domain.Sample, error) {
	q := s.deps.Store.Queries()
	if _, err := loadStep(ctx, q, actor, stepID); err != nil {
		return nil, AppError(err)
	}
	samples, err := q.ListSamplesByStep(ctx, stepID)
	if err != nil {
		return nil, err
	}
	if samples == nil {
		samples = []domain.Sample{}
	}
	return samples, nil
}

// DeleteSample removes a sample.
func (s *RecordService) DeleteSample(ctx context.Context, actor domain.Actor, id int64) error {
	err := s.deps.Store.RunInTx(ctx, func(q *repository.Queries) error {
		sample, err := q.GetSample(ctx, id)
		if err != nil {
			return err
		}
		if _, err := loadStep(ctx, q, actor, sample.StepID); err != nil {
			return hideAs(err, "sample", formatID(id))
		}
		if err := q.DeleteSample(ctx, id); err != nil {
			return err
		}
		return s.deps.Audit.LogStepOperation(ctx, q, "sample.delete", sample.StepID, actor,
			map[string]interface{}{"sample_id": id})
	})
	return AppError(err)
}

// AddMetadata records a key/value pair on a step.
func (s *RecordService) AddMetadata(ctx context.Context, actor domain.Actor, in domain.MetadataInput) (*domain.Metadata, error) {
	if err := domain.ValidateMetadata(in); err != nil {
		return nil, AppError(err)
	}
	md := &domain.Metadata{StepID: in.StepID, Key: in.Key, Value: in.Value}
	err := s.deps.Store.RunInTx(ctx, func(q *repository.Queries) error {
		if _, err := loadStep(ctx, q, actor, in.StepID); err != nil {
			return err
		}
		if err := q.CreateMetadata(ctx, md); err != nil {
			return err
		}
		return s.deps.Audit.LogStepOperation(ctx, q, "metadata.add", in.StepID, actor,
			map[string]interface{}{"metadata_id": md.ID, "key": md.Key})
	})
	if err != nil {
		return nil, AppError(err)
	}
	return md, nil
}

// ListMetadata returns the metadata of a step.
func (s *RecordService) ListMetadata(ctx context.Context, actor domain.Actor, stepID string) ([]domain.Metadata, error) {
	q := s.deps.Store.Queries()
	if _, err := loadStep(ctx, q, actor, stepID); err != nil {
		return nil, AppError(err)
	}
	md, err := q.ListMetadataByStep(ctx, stepID)
	if err != nil {
		return nil, err
	}
	if md == nil {
		md = []domain.Metadata{}
	}
	return md, nil
}

// DeleteMetadata removes a metadata pair.
func (s *RecordService) DeleteMetadata(ctx context.Context, actor domain.Actor, id int64) error {
	err := s.deps.Store.RunInTx(ctx, func(q *repository.Queries) error {
		md, err := q.GetMetadata(ctx, id)
		if err != nil {
			return err
		}
		if _, err := loadStep(ctx, q, actor, md.StepID); err != nil {
			return hideAs(err, "metadata", formatID(id))
		}
		if err := q.DeleteMetadata(ctx, id); err != nil {
			return err
		}
		return s.deps.Audit.LogStepOperation(ctx, q, "metadata.delete", md.StepID, actor,
			map[string]interface{}{"metadata_id": id})
	})
	return AppError(err)
}
