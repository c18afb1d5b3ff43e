// Package analysis serves face analysis. Detection is not implemented yet; the
// endpoint accepts and stores an image and returns placeholder features.
package analysis

import (
	"context"
	"fmt"

	"github.com/redmonkez12/beauty-assistant-api/internal/storage"
)

const keyPrefix = "faces"

// Features are the facial attributes reported for an image.
type Features struct {
	FaceShape string `json:"face_shape"`
	SkinTone  string `json:"skin_tone"`
	EyeColor  string `json:"eye_color"`
}

type Result struct {
	Message  string   `json:"message"`
	Features Features `json:"features"`
	ImageKey string   `json:"image_key,omitempty"`
}

var placeholderFeatures = Features{
	FaceShape: "oval",
	SkinTone:  "medium",
	EyeColor:  "brown",
}

type Service struct {
	storage storage.Storage
}

func NewService(store storage.Storage) *Service {
	return &Service{storage: store}
}

// Analyze stores img when one was uploaded and returns the placeholder features.
func (s *Service) Analyze(ctx context.Context, img *storage.Image) (*Result, error) {
	result := &Result{
		Message:  "Face analysis endpoint - coming soon",
		Features: placeholderFeatures,
	}

	if img == nil {
		return result, nil
	}

	key := storage.NewObjectKey(keyPrefix, img.Extension)
	if err := s.storage.Save(ctx, key, img.Reader(), img.Size(), img.ContentType); err != nil {
		return nil, fmt.Errorf("store face image: %w", err)
	}
	result.ImageKey = key

	return result, nil
}
