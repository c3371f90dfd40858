package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gavril-s/meme-search-bot/internal/domain"
	"github.com/gavril-s/meme-search-bot/internal/logger"
	"github.com/gavril-s/meme-search-bot/internal/repository"
	"github.com/gavril-s/meme-search-bot/internal/search"
	"github.com/gavril-s/meme-search-bot/internal/tracker"
	"github.com/google/uuid"
)

// IngestService drives the event pipeline: image events park in the tracker,
// description events resolve against it, and resolved pairs become durable
// records that are immediately searchable.
type IngestService struct {
	tracker  *tracker.Tracker
	records  *repository.MemeRecordRepository
	engine   *search.Engine
	archiver *MediaArchiver // nil when media archiving is disabled
	logger   *logger.Logger
}

// NewIngestService creates an ingest service. archiver may be nil.
func NewIngestService(
	trk *tracker.Tracker,
	records *repository.MemeRecordRepository,
	engine *search.Engine,
	archiver *MediaArchiver,
	log *logger.Logger,
) *IngestService {
	return &IngestService{
		tracker:  trk,
		records:  records,
		engine:   engine,
		archiver: archiver,
		logger:   log,
	}
}

// log returns a logger from context if available, otherwise returns the default logger
func (s *IngestService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// OnImage registers an image event as pending. The call never blocks on I/O
// and re-delivery of the same event is harmless.
func (s *IngestService) OnImage(ctx context.Context, ev domain.ImageEvent) {
	if ev.FileReference == "" {
		s.log(ctx).WithFields(logger.Fields{
			logger.FieldSourceID:  ev.SourceID,
			logger.FieldMessageID: ev.MessageID,
		}).Warn("Dropping image event without file reference")
		return
	}
	if ev.ArrivalTime.IsZero() {
		ev.ArrivalTime = time.Now().UTC()
	}

	s.tracker.ObserveImage(ev)

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldSourceID:  ev.SourceID,
		logger.FieldMessageID: ev.MessageID,
	}).Debug("Image event pending")
}

// OnDescription resolves a description event against pending state. When a
// pair is matched it is committed and indexed, and the new record is returned.
// A description that matches nothing, or that duplicates an already committed
// record, returns (nil, nil): both are expected outcomes, not failures.
func (s *IngestService) OnDescription(ctx context.Context, ev domain.DescriptionEvent) (*domain.MemeRecord, error) {
	ev.Text = strings.TrimSpace(ev.Text)
	if ev.Text == "" {
		return nil, nil
	}
	if ev.ArrivalTime.IsZero() {
		ev.ArrivalTime = time.Now().UTC()
	}

	pair, matched := s.tracker.ObserveDescription(ev)
	if !matched {
		s.log(ctx).WithFields(logger.Fields{
			logger.FieldSourceID:  ev.SourceID,
			logger.FieldMessageID: ev.MessageID,
		}).Debug("Description event matched no pending image")
		return nil, nil
	}

	rec := &domain.MemeRecord{
		ID:            uuid.New().String(),
		SourceID:      pair.Image.SourceID,
		MessageID:     pair.Image.MessageID,
		FileReference: pair.Image.FileReference,
		Description:   ev.Text,
		CreatedAt:     time.Now().UTC(),
	}

	// Archiving is best-effort; a failed upload never loses the match.
	if s.archiver != nil {
		media, err := s.archiver.Archive(ctx, rec.FileReference)
		if err != nil {
			s.log(ctx).WithFields(logger.Fields{
				logger.FieldSourceID:  rec.SourceID,
				logger.FieldMessageID: rec.MessageID,
			}).WithError(err).Warn("Failed to archive media")
		} else {
			rec.StorageKey = media.StorageKey
			rec.Width = media.Width
			rec.Height = media.Height
		}
	}

	if err := s.records.Insert(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.log(ctx).WithFields(logger.Fields{
				logger.FieldSourceID:  rec.SourceID,
				logger.FieldMessageID: rec.MessageID,
			}).Info("Record already committed, skipping re-delivery")
			return nil, nil
		}
		return nil, err
	}

	s.engine.Add(*rec)

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldSourceID:  rec.SourceID,
		logger.FieldMessageID: rec.MessageID,
	}).Info("Committed meme record")

	return rec, nil
}

// PendingImages returns the number of images awaiting a description.
func (s *IngestService) PendingImages() int {
	return s.tracker.Len()
}
