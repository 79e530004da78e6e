// Package pipeline sequences language detection, translation to English,
// reply generation and translation back into the user's language.
//
// The orchestrator has no failure state of its own. Every stage degrades
// inside the component that runs it: detection falls back to English,
// translation falls back to the input text, and generation reports failures
// as reply text.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/babelgate/pkg/detect"
	"github.com/dasmlab/babelgate/pkg/generate"
	"github.com/dasmlab/babelgate/pkg/translate"
)

// Stage names a step of the pipeline, in order.
type Stage string

const (
	StageReceived            Stage = "received"
	StageDetected            Stage = "detected"
	StageTranslatedToEnglish Stage = "translated_to_english"
	StageGenerated           Stage = "generated"
	StageTranslatedBack      Stage = "translated_back"
	StageDone                Stage = "done"
)

// Result is the outcome of one pipeline run.
type Result struct {
	// Reply is the text returned to the user. Never empty when the
	// generator produced anything.
	Reply string
	// Language is the detector code of the input.
	Language string
	// ServiceLanguage is Language resolved into the translation backend's
	// code space.
	ServiceLanguage string
	// Translated reports whether translation calls were needed.
	Translated bool
}

// Orchestrator runs the translate → generate → translate-back pipeline.
// It holds no per-request state and is safe for concurrent use.
type Orchestrator struct {
	detector   detect.Detector
	translator translate.Provider
	generator  generate.Generator
	logger     *logrus.Logger
}

// New creates an Orchestrator from its collaborators. The collaborators are
// created once at start-up and shared read-only across requests.
func New(detector detect.Detector, translator translate.Provider, generator generate.Generator, logger *logrus.Logger) *Orchestrator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Orchestrator{
		detector:   detector,
		translator: translator,
		generator:  generator,
		logger:     logger,
	}
}

type requestIDKey struct{}

// WithRequestID attaches a request ID used in log fields.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request ID stored in ctx, or a fresh one.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// Process runs text through the pipeline and returns the reply.
func (o *Orchestrator) Process(ctx context.Context, text string) Result {
	log := o.logger.WithFields(logrus.Fields{
		"request_id": RequestID(ctx),
	})
	started := time.Now()
	log.WithFields(logrus.Fields{
		"stage":       StageReceived,
		"text_length": len(text),
	}).Debug("Pipeline request received")

	// Detect
	t := time.Now()
	code := o.detector.Detect(text)
	observeStage(StageDetected, t)
	detectionsTotal.WithLabelValues(code).Inc()

	lang := o.translator.Resolve(code)
	pivot := o.translator.Resolve(translate.English)
	needsTranslation := lang != pivot
	log.WithFields(logrus.Fields{
		"stage":            StageDetected,
		"language":         code,
		"service_language": lang,
	}).Debug("Language detected")

	// Translate to English
	english := text
	if needsTranslation {
		t = time.Now()
		english = o.translator.Translate(ctx, text, lang, pivot)
		observeStage(StageTranslatedToEnglish, t)
	}

	// Generate
	t = time.Now()
	reply := o.generator.Generate(ctx, english)
	observeStage(StageGenerated, t)
	log.WithFields(logrus.Fields{
		"stage":        StageGenerated,
		"reply_length": len(reply),
	}).Debug("Reply generated")

	// Translate back
	final := reply
	if needsTranslation {
		t = time.Now()
		final = o.translator.Translate(ctx, reply, pivot, lang)
		observeStage(StageTranslatedBack, t)
	}

	observeStage(StageDone, started)
	pipelineRequestsTotal.Inc()
	log.WithFields(logrus.Fields{
		"stage":       StageDone,
		"language":    code,
		"translated":  needsTranslation,
		"duration_ms": time.Since(started).Milliseconds(),
	}).Info("Pipeline request completed")

	return Result{
		Reply:           final,
		Language:        code,
		ServiceLanguage: lang,
		Translated:      needsTranslation,
	}
}
