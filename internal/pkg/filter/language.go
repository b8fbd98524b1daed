package filter

import (
	"strings"

	"github.com/pemistahl/lingua-go"
	"go.uber.org/zap"

	"foodpics/internal/pkg/logger"
	"foodpics/internal/pkg/models"
)

// Titles shorter than this are too short to classify reliably and always pass.
const minDetectableLength = 20

// Below this confidence for every allowed language a title is dropped.
const minAllowedConfidence = 0.33

// Drops posts whose title is confidently written in a language outside the
// allowed set.
type Language struct {
	detector lingua.LanguageDetector
	allowed  map[lingua.Language]struct{}
}

// Creates a new Language filter from ISO 639-1 codes such as "en". Unknown
// codes are logged and ignored. Returns nil when no usable code is left.
func NewLanguage(codes []string) *Language {
	allowed := make(map[lingua.Language]struct{})
	for _, code := range codes {
		iso := lingua.GetIsoCode639_1FromValue(strings.ToUpper(strings.TrimSpace(code)))
		language := lingua.GetLanguageFromIsoCode639_1(iso)
		if language == lingua.Unknown {
			logger.Log.Warn("Ignoring unknown title language", zap.String("code", code))
			continue
		}
		allowed[language] = struct{}{}
	}
	if len(allowed) == 0 {
		return nil
	}

	logger.Log.Info("Initializing title language filter", zap.Int("language_count", len(allowed)))

	return &Language{
		detector: lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			Build(),
		allowed: allowed,
	}
}

func (l *Language) Name() string { return "language" }

func (l *Language) Allow(post *models.Post) bool {
	return l.AllowText(post.Title)
}

// Reports whether text may be in one of the allowed languages.
func (l *Language) AllowText(text string) bool {
	if len([]rune(text)) < minDetectableLength {
		return true
	}
	detected, ok := l.detector.DetectLanguageOf(text)
	if !ok {
		return true
	}
	if _, ok := l.allowed[detected]; ok {
		return true
	}

	var best float64
	for _, confidence := range l.detector.ComputeLanguageConfidenceValues(text) {
		if _, ok := l.allowed[confidence.Language()]; ok && confidence.Value() > best {
			best = confidence.Value()
		}
	}

	logger.Log.Debug("Language detection result",
		zap.String("detected_language", detected.String()),
		zap.Float64("allowed_confidence", best))

	return best > minAllowedConfidence
}
