package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/ports"
)

// SpeechJob renders both voice versions of an article summary. Either both
// audio URLs are committed or neither is.
type SpeechJob struct {
	repo       ports.ArticleRepository
	synth      ports.SpeechSynthesizer
	storage    ports.ObjectStorage
	softDelete bool
	loc        *time.Location
	now        func() time.Time
	logger     *slog.Logger
}

// NewSpeechJob builds the job. With softDeleteOnFailure the article is
// hidden when synthesis fails.
func NewSpeechJob(repo ports.ArticleRepository, synth ports.SpeechSynthesizer, storage ports.ObjectStorage, softDeleteOnFailure bool, loc *time.Location, logger *slog.Logger) *SpeechJob {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &SpeechJob{
		repo:       repo,
		synth:      synth,
		storage:    storage,
		softDelete: softDeleteOnFailure,
		loc:        loc,
		now:        time.Now,
		logger:     logger.With("component", "speech_job"),
	}
}

func (j *SpeechJob) Kind() domain.TaskKind { return domain.TaskSpeech }

func (j *SpeechJob) Run(ctx context.Context, articleID string) domain.TaskEnvelope {
	article, err := j.repo.GetArticle(ctx, articleID)
	if err != nil {
		return domain.Failed(articleID, fmt.Errorf("load article: %w", err))
	}
	if strings.TrimSpace(article.Summary) == "" {
		return domain.Failed(articleID, domain.ErrMissingSummary)
	}

	var maleURL, femaleURL string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		url, err := j.render(gctx, article.Summary, domain.MaleVoice)
		maleURL = url
		return err
	})
	g.Go(func() error {
		url, err := j.render(gctx, article.Summary, domain.FemaleVoice)
		femaleURL = url
		return err
	})

	if err := g.Wait(); err != nil {
		j.logger.Warn("speech synthesis failed", "article_id", articleID, "error", err)
		if j.softDelete {
			if _, delErr := j.repo.SoftDelete(ctx, articleID); delErr != nil {
				j.logger.Error("soft delete after speech failure", "article_id", articleID, "error", delErr)
			}
		}
		return domain.Failed(articleID, fmt.Errorf("%w: %v", domain.ErrSpeechFailed, err))
	}

	if err := j.repo.UpdateAudio(ctx, articleID, maleURL, femaleURL); err != nil {
		return domain.Failed(articleID, fmt.Errorf("store audio urls: %w", err))
	}

	return domain.Succeeded(articleID, map[string]string{
		"male_audio_url":   maleURL,
		"female_audio_url": femaleURL,
	})
}

func (j *SpeechJob) render(ctx context.Context, text string, voice domain.Voice) (string, error) {
	audio, err := j.synth.Synthesize(ctx, text, voice)
	if err != nil {
		return "", err
	}
	if len(audio) == 0 {
		return "", errors.New("empty audio for " + voice.Name)
	}
	url, err := j.storage.Upload(ctx, audio, AudioKey(j.now().In(j.loc), uuid.NewString()), "audio/mpeg")
	if err != nil {
		return "", fmt.Errorf("upload %s audio: %w", voice.Name, err)
	}
	return url, nil
}

// AudioKey is the object key of one rendition, partitioned by day.
func AudioKey(day time.Time, id string) string {
	return fmt.Sprintf("audio/%s/%s.mp3", day.Format("2006/01/02"), id)
}
